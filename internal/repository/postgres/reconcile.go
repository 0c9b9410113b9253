package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/safebytes/internal/repository"
)

// ReconcileStore finds threads where a reply exists but the parent never
// reached "replied" and fixes the parent. Reply creation is transactional,
// so these rows only come from data written before that, or by hand.
type ReconcileStore struct {
	pool *pgxpool.Pool
}

var _ repository.ThreadReconciler = (*ReconcileStore)(nil)

func NewReconcileStore(pool *pgxpool.Pool) *ReconcileStore {
	return &ReconcileStore{pool: pool}
}

func (s *ReconcileStore) ReconcileContactThreads(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE contact_messages c
		SET status = 'replied'
		WHERE c.status <> 'replied'
		  AND EXISTS (SELECT 1 FROM message_replies r WHERE r.original_message_id = c.id)`)
	if err != nil {
		return 0, wrapErr("reconcile contact threads", err)
	}
	return tag.RowsAffected(), nil
}

func (s *ReconcileStore) ReconcileRestaurantThreads(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE restaurant_messages m
		SET status = 'replied'
		WHERE m.status <> 'replied'
		  AND EXISTS (SELECT 1 FROM admin_replies r WHERE r.original_message_id = m.id)`)
	if err != nil {
		return 0, wrapErr("reconcile restaurant threads", err)
	}
	return tag.RowsAffected(), nil
}
