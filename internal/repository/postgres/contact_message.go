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

type ContactMessageStore struct {
	pool *pgxpool.Pool
}

var _ repository.ContactMessageRepository = (*ContactMessageStore)(nil)

func NewContactMessageStore(pool *pgxpool.Pool) *ContactMessageStore {
	return &ContactMessageStore{pool: pool}
}

const contactMessageColumns = `id, restaurant_id, name, email, COALESCE(phone, ''), subject, body,
	sender_kind, status, sender_user_id, created_at`

func scanContactMessage(row pgx.Row, m *models.ContactMessage) error {
	return row.Scan(
		&m.ID,
		&m.RestaurantID,
		&m.Name,
		&m.Email,
		&m.Phone,
		&m.Subject,
		&m.Body,
		&m.SenderKind,
		&m.Status,
		&m.SenderUserID,
		&m.CreatedAt,
	)
}

func (s *ContactMessageStore) Create(ctx context.Context, msg *models.ContactMessage) error {
	query := `
		INSERT INTO contact_messages
			(restaurant_id, name, email, phone, subject, body, sender_kind, status, sender_user_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, now())
		RETURNING id, created_at`

	err := s.pool.QueryRow(ctx, query,
		msg.RestaurantID,
		msg.Name,
		msg.Email,
		msg.Phone,
		msg.Subject,
		msg.Body,
		msg.SenderKind,
		msg.Status,
		msg.SenderUserID,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return wrapErr("insert contact message", err)
	}
	return nil
}

func (s *ContactMessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	query := `SELECT ` + contactMessageColumns + ` FROM contact_messages WHERE id = $1`

	var m models.ContactMessage
	if err := scanContactMessage(s.pool.QueryRow(ctx, query, id), &m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get contact message", err)
	}
	return &m, nil
}

func contactMessageWhere(filter models.ContactMessageFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.RestaurantID != nil {
		w.add("(restaurant_id = ? OR restaurant_id IS NULL)", *filter.RestaurantID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.SenderKind != "" {
		w.add("sender_kind = ?", filter.SenderKind)
	}
	return w
}

func (s *ContactMessageStore) List(ctx context.Context, filter models.ContactMessageFilter) ([]models.ContactMessage, error) {
	w := contactMessageWhere(filter)
	query := `SELECT ` + contactMessageColumns + `
		FROM contact_messages ` + w.clause() + `
		ORDER BY created_at DESC, id DESC ` + w.limit(filter.Limit)

	rows, err := s.pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr("list contact messages", err)
	}
	defer rows.Close()

	messages := make([]models.ContactMessage, 0)
	for rows.Next() {
		var m models.ContactMessage
		if err := scanContactMessage(rows, &m); err != nil {
			return nil, wrapErr("scan contact message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate contact messages", err)
	}
	return messages, nil
}

func (s *ContactMessageStore) Count(ctx context.Context, filter models.ContactMessageFilter) (int, error) {
	w := contactMessageWhere(filter)
	query := `SELECT COUNT(*) FROM contact_messages ` + w.clause()

	var n int
	if err := s.pool.QueryRow(ctx, query, w.args...).Scan(&n); err != nil {
		return 0, wrapErr("count contact messages", err)
	}
	return n, nil
}

func (s *ContactMessageStore) MarkRead(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	// The status guard is what keeps a replied message from being
	// downgraded back to read.
	_, err := s.pool.Exec(ctx, `
		UPDATE contact_messages
		SET status = 'read'
		WHERE id = $1 AND status = 'unread'`, id)
	if err != nil {
		return nil, wrapErr("mark contact message read", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ContactMessageStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return false, wrapErr("delete contact message", err)
	}
	return tag.RowsAffected() > 0, nil
}
