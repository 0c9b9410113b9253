package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
)

type MessageReplyStore struct {
	pool *pgxpool.Pool
}

var _ repository.MessageReplyRepository = (*MessageReplyStore)(nil)

func NewMessageReplyStore(pool *pgxpool.Pool) *MessageReplyStore {
	return &MessageReplyStore{pool: pool}
}

const messageReplyColumns = `id, sender_user_id, restaurant_id, original_message_id, original_message,
	reply_message, restaurant_name, is_read, replied_at`

func scanMessageReply(row pgx.Row, r *models.MessageReply) error {
	return row.Scan(
		&r.ID,
		&r.SenderUserID,
		&r.RestaurantID,
		&r.OriginalMessageID,
		&r.OriginalMessage,
		&r.ReplyMessage,
		&r.RestaurantName,
		&r.IsRead,
		&r.RepliedAt,
	)
}

// Create writes the reply and flips the parent to "replied" in a single
// transaction. The unique index on original_message_id turns a racing
// second reply into repository.ErrConflict.
func (s *MessageReplyStore) Create(ctx context.Context, reply *models.MessageReply) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin reply tx", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO message_replies
			(sender_user_id, restaurant_id, original_message_id, original_message,
			 reply_message, restaurant_name, is_read, replied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, replied_at`,
		reply.SenderUserID,
		reply.RestaurantID,
		reply.OriginalMessageID,
		reply.OriginalMessage,
		reply.ReplyMessage,
		reply.RestaurantName,
		reply.IsRead,
	).Scan(&reply.ID, &reply.RepliedAt)
	if err != nil {
		return wrapErr("insert message reply", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE contact_messages SET status = 'replied' WHERE id = $1`,
		reply.OriginalMessageID)
	if err != nil {
		return wrapErr("mark contact message replied", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit reply tx", err)
	}
	return nil
}

func (s *MessageReplyStore) list(ctx context.Context, op, where string, id uuid.UUID) ([]models.MessageReply, error) {
	query := `SELECT ` + messageReplyColumns + `
		FROM message_replies
		WHERE ` + where + ` = $1
		ORDER BY replied_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	replies := make([]models.MessageReply, 0)
	for rows.Next() {
		var r models.MessageReply
		if err := scanMessageReply(rows, &r); err != nil {
			return nil, wrapErr("scan message reply", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate message replies", err)
	}
	return replies, nil
}

func (s *MessageReplyStore) ListBySenderUser(ctx context.Context, userID uuid.UUID) ([]models.MessageReply, error) {
	return s.list(ctx, "list replies for user", "sender_user_id", userID)
}

func (s *MessageReplyStore) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.MessageReply, error) {
	return s.list(ctx, "list replies for restaurant", "restaurant_id", restaurantID)
}

func (s *MessageReplyStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM message_replies
		WHERE sender_user_id = $1 AND NOT is_read`, userID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count unread replies", err)
	}
	return n, nil
}

func (s *MessageReplyStore) MarkRead(ctx context.Context, replyID, userID uuid.UUID) (bool, error) {
	// Ownership lives in the WHERE clause, so "not yours" and "doesn't
	// exist" both affect zero rows and look the same to the caller.
	tag, err := s.pool.Exec(ctx, `
		UPDATE message_replies
		SET is_read = true
		WHERE id = $1 AND sender_user_id = $2`, replyID, userID)
	if err != nil {
		return false, wrapErr("mark reply read", err)
	}
	return tag.RowsAffected() > 0, nil
}
