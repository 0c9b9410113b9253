package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
)

type RestaurantMessageStore struct {
	pool *pgxpool.Pool
}

var _ repository.RestaurantMessageRepository = (*RestaurantMessageStore)(nil)

func NewRestaurantMessageStore(pool *pgxpool.Pool) *RestaurantMessageStore {
	return &RestaurantMessageStore{pool: pool}
}

const restaurantMessageColumns = `id, restaurant_id, restaurant_name, restaurant_email, subject, body, status, created_at`

func scanRestaurantMessage(row pgx.Row, m *models.RestaurantMessage) error {
	return row.Scan(
		&m.ID,
		&m.RestaurantID,
		&m.RestaurantName,
		&m.RestaurantEmail,
		&m.Subject,
		&m.Body,
		&m.Status,
		&m.CreatedAt,
	)
}

func (s *RestaurantMessageStore) Create(ctx context.Context, msg *models.RestaurantMessage) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO restaurant_messages
			(restaurant_id, restaurant_name, restaurant_email, subject, body, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`,
		msg.RestaurantID,
		msg.RestaurantName,
		msg.RestaurantEmail,
		msg.Subject,
		msg.Body,
		msg.Status,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return wrapErr("insert restaurant message", err)
	}
	return nil
}

func (s *RestaurantMessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.RestaurantMessage, error) {
	query := `SELECT ` + restaurantMessageColumns + ` FROM restaurant_messages WHERE id = $1`

	var m models.RestaurantMessage
	if err := scanRestaurantMessage(s.pool.QueryRow(ctx, query, id), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get restaurant message", err)
	}
	return &m, nil
}

func restaurantMessageWhere(filter models.RestaurantMessageFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.RestaurantID != nil {
		w.add("restaurant_id = ?", *filter.RestaurantID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	return w
}

func (s *RestaurantMessageStore) List(ctx context.Context, filter models.RestaurantMessageFilter) ([]models.RestaurantMessage, error) {
	w := restaurantMessageWhere(filter)
	query := `SELECT ` + restaurantMessageColumns + `
		FROM restaurant_messages ` + w.clause() + `
		ORDER BY created_at DESC, id DESC ` + w.limit(filter.Limit)

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list restaurant messages", err)
	}
	defer rows.Close()

	messages := make([]models.RestaurantMessage, 0)
	for rows.Next() {
		var m models.RestaurantMessage
		if err := scanRestaurantMessage(rows, &m); err != nil {
			return nil, wrapErr("scan restaurant message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate restaurant messages", err)
	}
	return messages, nil
}

func (s *RestaurantMessageStore) Count(ctx context.Context, filter models.RestaurantMessageFilter) (int, error) {
	w := restaurantMessageWhere(filter)

	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM restaurant_messages `+w.clause(), w.args...).Scan(&n)
	if err != nil {
		return 0, wrapErr("count restaurant messages", err)
	}
	return n, nil
}

func (s *RestaurantMessageStore) MarkRead(ctx context.Context, id uuid.UUID) (*models.RestaurantMessage, error) {
	_, err := s.pool.Exec(ctx, `
		UPDATE restaurant_messages
		SET status = 'read'
		WHERE id = $1 AND status = 'unread'`, id)
	if err != nil {
		return nil, wrapErr("mark restaurant message read", err)
	}
	return s.GetByID(ctx, id)
}
