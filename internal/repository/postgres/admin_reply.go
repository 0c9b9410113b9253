package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
)

type AdminReplyStore struct {
	pool *pgxpool.Pool
}

var _ repository.AdminReplyRepository = (*AdminReplyStore)(nil)

func NewAdminReplyStore(pool *pgxpool.Pool) *AdminReplyStore {
	return &AdminReplyStore{pool: pool}
}

// Create mirrors MessageReplyStore.Create one level up the chain.
func (s *AdminReplyStore) Create(ctx context.Context, reply *models.AdminReply) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin admin reply tx", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO admin_replies
			(original_message_id, admin_id, admin_name, restaurant_id, restaurant_email,
			 restaurant_name, subject, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING id, created_at`,
		reply.OriginalMessageID,
		reply.AdminID,
		reply.AdminName,
		reply.RestaurantID,
		reply.RestaurantEmail,
		reply.RestaurantName,
		reply.Subject,
		reply.Body,
		reply.Status,
	).Scan(&reply.ID, &reply.CreatedAt)
	if err != nil {
		return wrapErr("insert admin reply", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE restaurant_messages SET status = 'replied' WHERE id = $1`,
		reply.OriginalMessageID)
	if err != nil {
		return wrapErr("mark restaurant message replied", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit admin reply tx", err)
	}
	return nil
}

func (s *AdminReplyStore) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.AdminReply, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, original_message_id, admin_id, admin_name, restaurant_id, restaurant_email,
		       restaurant_name, subject, body, status, created_at
		FROM admin_replies
		WHERE restaurant_id = $1
		ORDER BY created_at DESC, id DESC`, restaurantID)
	if err != nil {
		return nil, wrapErr("list admin replies", err)
	}
	defer rows.Close()

	replies := make([]models.AdminReply, 0)
	for rows.Next() {
		var r models.AdminReply
		if err := rows.Scan(
			&r.ID,
			&r.OriginalMessageID,
			&r.AdminID,
			&r.AdminName,
			&r.RestaurantID,
			&r.RestaurantEmail,
			&r.RestaurantName,
			&r.Subject,
			&r.Body,
			&r.Status,
			&r.CreatedAt,
		); err != nil {
			return nil, wrapErr("scan admin reply", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate admin replies", err)
	}
	return replies, nil
}

func (s *AdminReplyStore) CountUnread(ctx context.Context, restaurantID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_replies
		WHERE restaurant_id = $1 AND status = 'unread'`, restaurantID).Scan(&n)
	if err != nil {
		return 0, wrapErr("count unread admin replies", err)
	}
	return n, nil
}

func (s *AdminReplyStore) MarkRead(ctx context.Context, replyID, restaurantID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE admin_replies
		SET status = 'read'
		WHERE id = $1 AND restaurant_id = $2`, replyID, restaurantID)
	if err != nil {
		return false, wrapErr("mark admin reply read", err)
	}
	return tag.RowsAffected() > 0, nil
}
