package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates which thread operations a caller may perform.
//
// The JWT never carries the role. Handlers only know WHO is calling;
// the thread service loads the user record and checks Role itself, so
// a role change takes effect without reissuing tokens.
type Role string

const (
	RoleUser       Role = "user"
	RoleRestaurant Role = "restaurant"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleRestaurant, RoleAdmin:
		return true
	}
	return false
}

// User is an account of any role. (email, role) is unique, so the same
// address can own one diner account and one restaurant account.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageStatus is shared by ContactMessage and RestaurantMessage.
//
//	unread ──markRead──▶ read ──reply──▶ replied
//	   └───────────────reply──────────────▶┘
//
// markRead never moves a message backwards.
type MessageStatus string

const (
	StatusUnread  MessageStatus = "unread"
	StatusRead    MessageStatus = "read"
	StatusReplied MessageStatus = "replied"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusReplied:
		return true
	}
	return false
}

// SenderKind records who filled in the public contact form.
type SenderKind string

const (
	SenderUser       SenderKind = "user"
	SenderRestaurant SenderKind = "restaurant"
)

func (k SenderKind) Valid() bool {
	return k == SenderUser || k == SenderRestaurant
}

// ContactMessage is sent by a diner (or an anonymous visitor) to a restaurant.
//
// SenderUserID == nil means anonymous. Anonymous messages are terminal:
// there is nobody to deliver a MessageReply to.
//
// RestaurantID == nil means the message was not addressed to a specific
// restaurant; any restaurant may handle it.
type ContactMessage struct {
	ID           uuid.UUID     `json:"id"`
	RestaurantID *uuid.UUID    `json:"restaurant_id,omitempty"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone,omitempty"`
	Subject      string        `json:"subject"`
	Body         string        `json:"body"`
	SenderKind   SenderKind    `json:"sender_kind"`
	Status       MessageStatus `json:"status"`
	SenderUserID *uuid.UUID    `json:"sender_user_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// IsAnonymous reports whether the message has no identified sender.
func (m *ContactMessage) IsAnonymous() bool {
	return m.SenderUserID == nil || *m.SenderUserID == uuid.Nil
}

// VisibleTo reports whether a restaurant may act on this message.
func (m *ContactMessage) VisibleTo(restaurantID uuid.UUID) bool {
	return m.RestaurantID == nil || *m.RestaurantID == restaurantID
}

// MessageReply is a restaurant's answer to a ContactMessage.
//
// OriginalMessage and RestaurantName are snapshots taken when the reply is
// written. They are never refreshed, so the thread still reads correctly
// after the original is edited or deleted or the restaurant renames itself.
type MessageReply struct {
	ID                uuid.UUID `json:"id"`
	SenderUserID      uuid.UUID `json:"sender_user_id"` // recipient of the reply
	RestaurantID      uuid.UUID `json:"restaurant_id"`
	OriginalMessageID uuid.UUID `json:"original_message_id"`
	OriginalMessage   string    `json:"original_message"`
	ReplyMessage      string    `json:"reply_message"`
	RestaurantName    string    `json:"restaurant_name"`
	IsRead            bool      `json:"is_read"`
	RepliedAt         time.Time `json:"replied_at"`
}

// RestaurantMessage is sent by a restaurant to the platform admin.
// RestaurantID is always set; the snapshot fields come from the caller's
// user record, never from the request.
type RestaurantMessage struct {
	ID              uuid.UUID     `json:"id"`
	RestaurantID    uuid.UUID     `json:"restaurant_id"`
	RestaurantName  string        `json:"restaurant_name"`
	RestaurantEmail string        `json:"restaurant_email"`
	Subject         string        `json:"subject"`
	Body            string        `json:"body"`
	Status          MessageStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// AdminReplyStatus is the read state of an AdminReply.
type AdminReplyStatus string

const (
	AdminReplyUnread AdminReplyStatus = "unread"
	AdminReplyRead   AdminReplyStatus = "read"
)

// AdminReply is the admin's answer to a RestaurantMessage.
// RestaurantID is copied from the original message.
type AdminReply struct {
	ID                uuid.UUID        `json:"id"`
	OriginalMessageID uuid.UUID        `json:"original_message_id"`
	AdminID           uuid.UUID        `json:"admin_id"`
	AdminName         string           `json:"admin_name"`
	RestaurantID      uuid.UUID        `json:"restaurant_id"`
	RestaurantEmail   string           `json:"restaurant_email"`
	RestaurantName    string           `json:"restaurant_name"`
	Subject           string           `json:"subject"`
	Body              string           `json:"body"`
	Status            AdminReplyStatus `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
}

// ContactMessageFilter selects contact messages for listing and counting.
// Zero values mean "don't filter". Results are always newest first.
type ContactMessageFilter struct {
	// RestaurantID limits results to messages visible to that restaurant:
	// addressed to it, or not addressed to anyone.
	RestaurantID *uuid.UUID
	Status       MessageStatus
	SenderKind   SenderKind
	Limit        int
}

// RestaurantMessageFilter selects restaurant messages for listing and counting.
type RestaurantMessageFilter struct {
	RestaurantID *uuid.UUID
	Status       MessageStatus
	Limit        int
}
