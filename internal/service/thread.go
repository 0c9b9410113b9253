package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// Repositories groups the stores ThreadService needs.
type Repositories struct {
	Users              repository.UserRepository
	ContactMessages    repository.ContactMessageRepository
	MessageReplies     repository.MessageReplyRepository
	RestaurantMessages repository.RestaurantMessageRepository
	AdminReplies       repository.AdminReplyRepository
}

// ThreadService owns the message/reply rules:
//
//   - A reply's recipient is always read from the stored original message,
//     never from the request.
//   - Creating a reply moves the parent to "replied" (atomically, in the store).
//   - Anonymous contact messages can't be replied to.
//   - Roles come from the user store on every call, not from the token.
type ThreadService struct {
	users              repository.UserRepository
	contactMessages    repository.ContactMessageRepository
	messageReplies     repository.MessageReplyRepository
	restaurantMessages repository.RestaurantMessageRepository
	adminReplies       repository.AdminReplyRepository
}

func NewThreadService(repos Repositories) *ThreadService {
	return &ThreadService{
		users:              repos.Users,
		contactMessages:    repos.ContactMessages,
		messageReplies:     repos.MessageReplies,
		restaurantMessages: repos.RestaurantMessages,
		adminReplies:       repos.AdminReplies,
	}
}

// Inbox is a page of items plus the unread count for the whole inbox
// (not just the page).
type Inbox[T any] struct {
	Items  []T `json:"items"`
	Unread int `json:"unread"`
}

// ContactMessageInput is the public contact form. SenderUserID must come
// from the caller's verified identity; nil means anonymous.
type ContactMessageInput struct {
	RestaurantID *uuid.UUID
	Name         string
	Email        string
	Phone        string
	Subject      string
	Body         string
	SenderKind   models.SenderKind
	SenderUserID *uuid.UUID
}

// ---------------------------------------------------------------
// Submission
// ---------------------------------------------------------------

func (s *ThreadService) SubmitContactMessage(ctx context.Context, in ContactMessageInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		RestaurantID: in.RestaurantID,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Subject:      strings.TrimSpace(in.Subject),
		Body:         strings.TrimSpace(in.Body),
		SenderKind:   in.SenderKind,
		Status:       models.StatusUnread,
		SenderUserID: in.SenderUserID,
	}
	if err := requireFields(
		field{"name", msg.Name},
		field{"email", msg.Email},
		field{"subject", msg.Subject},
		field{"body", msg.Body},
	); err != nil {
		return nil, err
	}

	if msg.SenderKind == "" {
		msg.SenderKind = models.SenderUser
	}
	if !msg.SenderKind.Valid() {
		return nil, fmt.Errorf("%w: sender_kind %q", ErrInvalidField, msg.SenderKind)
	}
	if msg.SenderUserID != nil && *msg.SenderUserID == uuid.Nil {
		msg.SenderUserID = nil
	}

	if msg.RestaurantID != nil {
		restaurant, err := s.users.GetByID(ctx, *msg.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("load restaurant: %w", err)
		}
		if restaurant == nil || restaurant.Role != models.RoleRestaurant {
			return nil, fmt.Errorf("restaurant %w", ErrNotFound)
		}
	}

	if err := s.contactMessages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return msg, nil
}

func (s *ThreadService) SubmitRestaurantMessage(ctx context.Context, callerID uuid.UUID, subject, body string) (*models.RestaurantMessage, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if err := requireFields(field{"subject", subject}, field{"body", body}); err != nil {
		return nil, err
	}

	caller, err := s.requireRole(ctx, callerID, models.RoleRestaurant)
	if err != nil {
		return nil, err
	}

	msg := &models.RestaurantMessage{
		RestaurantID:    caller.ID,
		RestaurantName:  caller.DisplayName,
		RestaurantEmail: caller.Email,
		Subject:         subject,
		Body:            body,
		Status:          models.StatusUnread,
	}
	if err := s.restaurantMessages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create restaurant message: %w", err)
	}
	return msg, nil
}

// ---------------------------------------------------------------
// Replies
// ---------------------------------------------------------------

// ReplyToContactMessage checks, in order: fields present, original exists,
// original not anonymous, caller exists, caller is a restaurant, message
// visible to that restaurant. The first failure wins.
func (s *ThreadService) ReplyToContactMessage(ctx context.Context, callerID, originalMessageID uuid.UUID, replyBody string) (*models.MessageReply, error) {
	replyBody = strings.TrimSpace(replyBody)
	if replyBody == "" || originalMessageID == uuid.Nil {
		return nil, ErrMissingFields
	}

	original, err := s.contactMessages.GetByID(ctx, originalMessageID)
	if err != nil {
		return nil, fmt.Errorf("load contact message: %w", err)
	}
	if original == nil {
		return nil, fmt.Errorf("contact message %w", ErrNotFound)
	}
	if original.IsAnonymous() {
		return nil, ErrAnonymousMessage
	}

	caller, err := s.requireRole(ctx, callerID, models.RoleRestaurant)
	if err != nil {
		return nil, err
	}
	if !original.VisibleTo(caller.ID) {
		return nil, fmt.Errorf("contact message %w", ErrNotFound)
	}

	reply := &models.MessageReply{
		SenderUserID:      *original.SenderUserID,
		RestaurantID:      caller.ID,
		OriginalMessageID: original.ID,
		OriginalMessage:   original.Body,
		ReplyMessage:      replyBody,
		RestaurantName:    caller.DisplayName,
		IsRead:            false,
	}
	if err := s.messageReplies.Create(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReplied
		}
		return nil, fmt.Errorf("create message reply: %w", err)
	}
	return reply, nil
}

// ReplyToRestaurantMessage is ReplyToContactMessage one level up: admin
// answers restaurant. subject is an optional display override; it defaults
// to "Re: <original subject>".
func (s *ThreadService) ReplyToRestaurantMessage(ctx context.Context, callerAdminID, originalMessageID uuid.UUID, subject, body string) (*models.AdminReply, error) {
	body = strings.TrimSpace(body)
	if body == "" || originalMessageID == uuid.Nil {
		return nil, ErrMissingFields
	}

	original, err := s.restaurantMessages.GetByID(ctx, originalMessageID)
	if err != nil {
		return nil, fmt.Errorf("load restaurant message: %w", err)
	}
	if original == nil {
		return nil, fmt.Errorf("restaurant message %w", ErrNotFound)
	}

	admin, err := s.requireRole(ctx, callerAdminID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "Re: " + original.Subject
	}

	reply := &models.AdminReply{
		OriginalMessageID: original.ID,
		AdminID:           admin.ID,
		AdminName:         admin.DisplayName,
		RestaurantID:      original.RestaurantID,
		RestaurantEmail:   original.RestaurantEmail,
		RestaurantName:    original.RestaurantName,
		Subject:           subject,
		Body:              body,
		Status:            models.AdminReplyUnread,
	}
	if err := s.adminReplies.Create(ctx, reply); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReplied
		}
		return nil, fmt.Errorf("create admin reply: %w", err)
	}
	return reply, nil
}

// ---------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------

// MarkContactMessageRead moves unread → read. A read or replied message
// is returned unchanged, so a late markRead can't undo a reply.
func (s *ThreadService) MarkContactMessageRead(ctx context.Context, callerID, messageID uuid.UUID) (*models.ContactMessage, error) {
	if _, err := s.visibleContactMessage(ctx, callerID, messageID); err != nil {
		return nil, err
	}
	msg, err := s.contactMessages.MarkRead(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("mark contact message read: %w", err)
	}
	if msg == nil {
		// deleted between the two calls
		return nil, fmt.Errorf("contact message %w", ErrNotFound)
	}
	return msg, nil
}

func (s *ThreadService) MarkRestaurantMessageRead(ctx context.Context, callerAdminID, messageID uuid.UUID) (*models.RestaurantMessage, error) {
	if _, err := s.requireRole(ctx, callerAdminID, models.RoleAdmin); err != nil {
		return nil, err
	}
	msg, err := s.restaurantMessages.MarkRead(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("mark restaurant message read: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("restaurant message %w", ErrNotFound)
	}
	return msg, nil
}

// MarkReplyRead flips isRead on a reply addressed to requestingUserID.
// Someone else's reply is reported as not found.
func (s *ThreadService) MarkReplyRead(ctx context.Context, replyID, requestingUserID uuid.UUID) error {
	ok, err := s.messageReplies.MarkRead(ctx, replyID, requestingUserID)
	if err != nil {
		return fmt.Errorf("mark reply read: %w", err)
	}
	if !ok {
		return fmt.Errorf("reply %w", ErrNotFound)
	}
	return nil
}

func (s *ThreadService) MarkAdminReplyRead(ctx context.Context, replyID, restaurantID uuid.UUID) error {
	ok, err := s.adminReplies.MarkRead(ctx, replyID, restaurantID)
	if err != nil {
		return fmt.Errorf("mark admin reply read: %w", err)
	}
	if !ok {
		return fmt.Errorf("admin reply %w", ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------
// Single-message access
// ---------------------------------------------------------------

func (s *ThreadService) GetContactMessage(ctx context.Context, callerID, messageID uuid.UUID) (*models.ContactMessage, error) {
	return s.visibleContactMessage(ctx, callerID, messageID)
}

// DeleteContactMessage removes a message on behalf of the receiving
// restaurant. Replies keep their snapshot of the body.
func (s *ThreadService) DeleteContactMessage(ctx context.Context, callerID, messageID uuid.UUID) error {
	if _, err := s.visibleContactMessage(ctx, callerID, messageID); err != nil {
		return err
	}
	deleted, err := s.contactMessages.Delete(ctx, messageID)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	if !deleted {
		return fmt.Errorf("contact message %w", ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------
// Retrieval. Read-only; nothing here writes.
// ---------------------------------------------------------------

func (s *ThreadService) ListRepliesForUser(ctx context.Context, userID uuid.UUID) ([]models.MessageReply, error) {
	replies, err := s.messageReplies.ListBySenderUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list replies for user: %w", err)
	}
	return replies, nil
}

func (s *ThreadService) CountUnreadReplies(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := s.messageReplies.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread replies: %w", err)
	}
	return n, nil
}

func (s *ThreadService) ListRepliesForRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]models.MessageReply, error) {
	if _, err := s.requireRole(ctx, restaurantID, models.RoleRestaurant); err != nil {
		return nil, err
	}
	replies, err := s.messageReplies.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list replies for restaurant: %w", err)
	}
	return replies, nil
}

// ListMessagesForRestaurant is the restaurant's contact inbox: messages
// addressed to it plus unaddressed ones, latest filter.Limit first.
func (s *ThreadService) ListMessagesForRestaurant(ctx context.Context, restaurantID uuid.UUID, filter models.ContactMessageFilter) (*Inbox[models.ContactMessage], error) {
	if _, err := s.requireRole(ctx, restaurantID, models.RoleRestaurant); err != nil {
		return nil, err
	}
	filter.RestaurantID = &restaurantID
	return s.contactInbox(ctx, filter)
}

// ListAllContactMessages is the admin view across every restaurant.
func (s *ThreadService) ListAllContactMessages(ctx context.Context, callerAdminID uuid.UUID, filter models.ContactMessageFilter) (*Inbox[models.ContactMessage], error) {
	if _, err := s.requireRole(ctx, callerAdminID, models.RoleAdmin); err != nil {
		return nil, err
	}
	filter.RestaurantID = nil
	return s.contactInbox(ctx, filter)
}

func (s *ThreadService) contactInbox(ctx context.Context, filter models.ContactMessageFilter) (*Inbox[models.ContactMessage], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidField, filter.Status)
	}
	if filter.SenderKind != "" && !filter.SenderKind.Valid() {
		return nil, fmt.Errorf("%w: sender_kind %q", ErrInvalidField, filter.SenderKind)
	}
	filter.Limit = clampLimit(filter.Limit)

	items, err := s.contactMessages.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	unread, err := s.contactMessages.Count(ctx, models.ContactMessageFilter{
		RestaurantID: filter.RestaurantID,
		Status:       models.StatusUnread,
	})
	if err != nil {
		return nil, fmt.Errorf("count unread contact messages: %w", err)
	}
	return &Inbox[models.ContactMessage]{Items: items, Unread: unread}, nil
}

// ListRestaurantMessages is the admin inbox.
func (s *ThreadService) ListRestaurantMessages(ctx context.Context, callerAdminID uuid.UUID, filter models.RestaurantMessageFilter) (*Inbox[models.RestaurantMessage], error) {
	if _, err := s.requireRole(ctx, callerAdminID, models.RoleAdmin); err != nil {
		return nil, err
	}
	filter.RestaurantID = nil
	return s.restaurantInbox(ctx, filter)
}

// ListSentRestaurantMessages is a restaurant's outbox to the admin.
// Unread counts messages the admin hasn't opened yet.
func (s *ThreadService) ListSentRestaurantMessages(ctx context.Context, restaurantID uuid.UUID, filter models.RestaurantMessageFilter) (*Inbox[models.RestaurantMessage], error) {
	if _, err := s.requireRole(ctx, restaurantID, models.RoleRestaurant); err != nil {
		return nil, err
	}
	filter.RestaurantID = &restaurantID
	return s.restaurantInbox(ctx, filter)
}

func (s *ThreadService) restaurantInbox(ctx context.Context, filter models.RestaurantMessageFilter) (*Inbox[models.RestaurantMessage], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidField, filter.Status)
	}
	filter.Limit = clampLimit(filter.Limit)

	items, err := s.restaurantMessages.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list restaurant messages: %w", err)
	}
	unread, err := s.restaurantMessages.Count(ctx, models.RestaurantMessageFilter{
		RestaurantID: filter.RestaurantID,
		Status:       models.StatusUnread,
	})
	if err != nil {
		return nil, fmt.Errorf("count unread restaurant messages: %w", err)
	}
	return &Inbox[models.RestaurantMessage]{Items: items, Unread: unread}, nil
}

func (s *ThreadService) ListAdminRepliesForRestaurant(ctx context.Context, restaurantID uuid.UUID) (*Inbox[models.AdminReply], error) {
	if _, err := s.requireRole(ctx, restaurantID, models.RoleRestaurant); err != nil {
		return nil, err
	}
	items, err := s.adminReplies.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list admin replies: %w", err)
	}
	unread, err := s.adminReplies.CountUnread(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("count unread admin replies: %w", err)
	}
	return &Inbox[models.AdminReply]{Items: items, Unread: unread}, nil
}

// ---------------------------------------------------------------
// helpers
// ---------------------------------------------------------------

// requireRole loads the caller and checks its role. An unknown caller is
// ErrNotFound; a known caller with another role is ErrForbidden.
func (s *ThreadService) requireRole(ctx context.Context, callerID uuid.UUID, role models.Role) (*models.User, error) {
	caller, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if caller == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	if caller.Role != role {
		return nil, fmt.Errorf("%w: requires role %s", ErrForbidden, role)
	}
	return caller, nil
}

// visibleContactMessage loads a contact message for a restaurant caller,
// hiding messages addressed to other restaurants.
func (s *ThreadService) visibleContactMessage(ctx context.Context, callerID, messageID uuid.UUID) (*models.ContactMessage, error) {
	caller, err := s.requireRole(ctx, callerID, models.RoleRestaurant)
	if err != nil {
		return nil, err
	}
	msg, err := s.contactMessages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("load contact message: %w", err)
	}
	if msg == nil || !msg.VisibleTo(caller.ID) {
		return nil, fmt.Errorf("contact message %w", ErrNotFound)
	}
	return msg, nil
}

type field struct{ name, value string }

// requireFields returns ErrMissingFields naming every blank field.
func requireFields(fields ...field) error {
	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
