package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/models"
)

// Conventions shared by every repository below:
//
//   - context.Context first. If the HTTP request is cancelled, the query
//     is cancelled with it.
//   - "Not found" is (nil, nil) or (false, nil), never an error. The caller
//     decides whether absence is a 404.
//   - List methods return an empty slice, never nil, so JSON says [] not null.
//   - Unique-constraint violations come back as ErrConflict.

// ErrConflict is returned when a write would violate a unique constraint:
// a duplicate (email, role) account, or a second reply to the same message.
var ErrConflict = errors.New("conflict")

// UserRepository is the User/Role store.
type UserRepository interface {
	// Create inserts a user. Returns ErrConflict if (email, role) exists.
	Create(ctx context.Context, email, displayName, passwordHash string, role models.Role) (*models.User, error)

	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)

	GetByEmail(ctx context.Context, email string, role models.Role) (*models.User, error)
}

// ContactMessageRepository persists messages from diners to restaurants.
type ContactMessageRepository interface {
	// Create inserts msg and fills in ID and CreatedAt.
	Create(ctx context.Context, msg *models.ContactMessage) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error)

	// List returns messages matching filter, newest first, at most filter.Limit.
	List(ctx context.Context, filter models.ContactMessageFilter) ([]models.ContactMessage, error)

	// Count ignores filter.Limit.
	Count(ctx context.Context, filter models.ContactMessageFilter) (int, error)

	// MarkRead moves an unread message to read and returns the message as
	// stored afterwards. Read and replied messages are returned unchanged.
	MarkRead(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error)

	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MessageReplyRepository persists restaurant replies to contact messages.
type MessageReplyRepository interface {
	// Create inserts the reply and sets the parent ContactMessage to
	// "replied" as one atomic step. Fills in ID and RepliedAt.
	// Returns ErrConflict if the parent already has a reply.
	Create(ctx context.Context, reply *models.MessageReply) error

	// ListBySenderUser returns replies addressed to userID, newest first.
	ListBySenderUser(ctx context.Context, userID uuid.UUID) ([]models.MessageReply, error)

	// ListByRestaurant returns replies written by restaurantID, newest first.
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.MessageReply, error)

	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// MarkRead sets is_read on a reply owned by userID. Returns false when
	// the reply doesn't exist OR belongs to someone else.
	MarkRead(ctx context.Context, replyID, userID uuid.UUID) (bool, error)
}

// RestaurantMessageRepository persists messages from restaurants to the admin.
type RestaurantMessageRepository interface {
	Create(ctx context.Context, msg *models.RestaurantMessage) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.RestaurantMessage, error)

	List(ctx context.Context, filter models.RestaurantMessageFilter) ([]models.RestaurantMessage, error)

	Count(ctx context.Context, filter models.RestaurantMessageFilter) (int, error)

	// MarkRead has the same no-downgrade semantics as ContactMessageRepository.MarkRead.
	MarkRead(ctx context.Context, id uuid.UUID) (*models.RestaurantMessage, error)
}

// AdminReplyRepository persists admin replies to restaurant messages.
type AdminReplyRepository interface {
	// Create inserts the reply and sets the parent RestaurantMessage to
	// "replied" atomically. Returns ErrConflict on a second reply.
	Create(ctx context.Context, reply *models.AdminReply) error

	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.AdminReply, error)

	CountUnread(ctx context.Context, restaurantID uuid.UUID) (int, error)

	// MarkRead returns false when the reply doesn't exist or isn't addressed
	// to restaurantID.
	MarkRead(ctx context.Context, replyID, restaurantID uuid.UUID) (bool, error)
}

// ThreadReconciler repairs parents left un-"replied" although a reply exists.
// Both methods are idempotent and return the number of rows fixed.
type ThreadReconciler interface {
	ReconcileContactThreads(ctx context.Context) (int64, error)
	ReconcileRestaurantThreads(ctx context.Context) (int64, error)
}
