package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lalith-99/safebytes/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestWrapErr(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "message_replies_original_message_id_key"}
	err := wrapErr("insert message reply", dup)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Contains(t, err.Error(), "insert message reply")

	other := &pgconn.PgError{Code: "23503"}
	err = wrapErr("insert", other)
	assert.NotErrorIs(t, err, repository.ErrConflict)
	assert.ErrorAs(t, err, &other)

	plain := errors.New("conn closed")
	assert.ErrorIs(t, wrapErr("query", plain), plain)
}

func TestWhereBuilder(t *testing.T) {
	var w whereBuilder
	assert.Empty(t, w.clause())
	assert.Empty(t, w.limit(0))

	w.add("(restaurant_id = ? OR restaurant_id IS NULL)", "r1")
	w.add("status = ?", "unread")
	assert.Equal(t, "WHERE (restaurant_id = $1 OR restaurant_id IS NULL) AND status = $2", w.clause())
	assert.Equal(t, "LIMIT $3", w.limit(50))
	assert.Equal(t, []any{"r1", "unread", 50}, w.args)
}
