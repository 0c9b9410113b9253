// Package memory is an in-process implementation of every repository
// interface. It backs STORE_DRIVER=memory for local runs and the service
// and handler tests. It keeps the same guarantees the Postgres schema
// gives: (email, role) and one-reply-per-message uniqueness, and reply
// insert + parent status update as a single step.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository"
)

// Store holds all collections behind one mutex. The typed views returned
// by Users(), ContactMessages() etc. implement the repository interfaces.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	users              map[uuid.UUID]models.User
	contactMessages    map[uuid.UUID]models.ContactMessage
	messageReplies     map[uuid.UUID]models.MessageReply
	restaurantMessages map[uuid.UUID]models.RestaurantMessage
	adminReplies       map[uuid.UUID]models.AdminReply
}

func NewStore() *Store {
	return &Store{
		now:                time.Now,
		users:              make(map[uuid.UUID]models.User),
		contactMessages:    make(map[uuid.UUID]models.ContactMessage),
		messageReplies:     make(map[uuid.UUID]models.MessageReply),
		restaurantMessages: make(map[uuid.UUID]models.RestaurantMessage),
		adminReplies:       make(map[uuid.UUID]models.AdminReply),
	}
}

// SetClock replaces the timestamp source. Tests use it to get distinct,
// ordered timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserStore                           { return &UserStore{s} }
func (s *Store) ContactMessages() *ContactMessageStore       { return &ContactMessageStore{s} }
func (s *Store) MessageReplies() *MessageReplyStore          { return &MessageReplyStore{s} }
func (s *Store) RestaurantMessages() *RestaurantMessageStore { return &RestaurantMessageStore{s} }
func (s *Store) AdminReplies() *AdminReplyStore              { return &AdminReplyStore{s} }
func (s *Store) Reconciler() *ReconcileStore                 { return &ReconcileStore{s} }

// Counts reports collection sizes; tests assert "zero replies created".
func (s *Store) Counts() (contactMessages, messageReplies, restaurantMessages, adminReplies int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contactMessages), len(s.messageReplies), len(s.restaurantMessages), len(s.adminReplies)
}

// ---------------------------------------------------------------
// Users
// ---------------------------------------------------------------

type UserStore struct{ s *Store }

var _ repository.UserRepository = (*UserStore)(nil)

func (u *UserStore) Create(_ context.Context, email, displayName, passwordHash string, role models.Role) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Email == email && existing.Role == role {
			return nil, repository.ErrConflict
		}
	}
	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    u.s.now(),
	}
	u.s.users[user.ID] = user
	return &user, nil
}

func (u *UserStore) GetByID(_ context.Context, userID uuid.UUID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(_ context.Context, email string, role models.Role) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.Email == email && user.Role == role {
			return &user, nil
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------
// Contact messages
// ---------------------------------------------------------------

type ContactMessageStore struct{ s *Store }

var _ repository.ContactMessageRepository = (*ContactMessageStore)(nil)

func (c *ContactMessageStore) Create(_ context.Context, msg *models.ContactMessage) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	msg.ID = uuid.New()
	msg.CreatedAt = c.s.now()
	c.s.contactMessages[msg.ID] = cloneContactMessage(*msg)
	return nil
}

func (c *ContactMessageStore) GetByID(_ context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	m, ok := c.s.contactMessages[id]
	if !ok {
		return nil, nil
	}
	m = cloneContactMessage(m)
	return &m, nil
}

func matchContactMessage(m models.ContactMessage, f models.ContactMessageFilter) bool {
	if f.RestaurantID != nil && !m.VisibleTo(*f.RestaurantID) {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.SenderKind != "" && m.SenderKind != f.SenderKind {
		return false
	}
	return true
}

func (c *ContactMessageStore) List(_ context.Context, filter models.ContactMessageFilter) ([]models.ContactMessage, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	out := make([]models.ContactMessage, 0)
	for _, m := range c.s.contactMessages {
		if matchContactMessage(m, filter) {
			out = append(out, cloneContactMessage(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return truncate(out, filter.Limit), nil
}

func (c *ContactMessageStore) Count(_ context.Context, filter models.ContactMessageFilter) (int, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	n := 0
	for _, m := range c.s.contactMessages {
		if matchContactMessage(m, filter) {
			n++
		}
	}
	return n, nil
}

func (c *ContactMessageStore) MarkRead(_ context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	m, ok := c.s.contactMessages[id]
	if !ok {
		return nil, nil
	}
	if m.Status == models.StatusUnread {
		m.Status = models.StatusRead
		c.s.contactMessages[id] = m
	}
	m = cloneContactMessage(m)
	return &m, nil
}

func (c *ContactMessageStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.contactMessages[id]; !ok {
		return false, nil
	}
	delete(c.s.contactMessages, id)
	return true, nil
}

// SetStatus overwrites a message's status without any transition check.
// It exists for tests that need a thread in a state the service can't
// produce, such as a reply whose parent is still unread.
func (c *ContactMessageStore) SetStatus(id uuid.UUID, status models.MessageStatus) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if m, ok := c.s.contactMessages[id]; ok {
		m.Status = status
		c.s.contactMessages[id] = m
	}
}

// ---------------------------------------------------------------
// Message replies
// ---------------------------------------------------------------

type MessageReplyStore struct{ s *Store }

var _ repository.MessageReplyRepository = (*MessageReplyStore)(nil)

func (r *MessageReplyStore) Create(_ context.Context, reply *models.MessageReply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.messageReplies {
		if existing.OriginalMessageID == reply.OriginalMessageID {
			return repository.ErrConflict
		}
	}

	reply.ID = uuid.New()
	reply.RepliedAt = r.s.now()
	r.s.messageReplies[reply.ID] = *reply

	if parent, ok := r.s.contactMessages[reply.OriginalMessageID]; ok {
		parent.Status = models.StatusReplied
		r.s.contactMessages[parent.ID] = parent
	}
	return nil
}

func (r *MessageReplyStore) listWhere(keep func(models.MessageReply) bool) []models.MessageReply {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.MessageReply, 0)
	for _, reply := range r.s.messageReplies {
		if keep(reply) {
			out = append(out, reply)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].RepliedAt, out[j].RepliedAt, out[i].ID, out[j].ID)
	})
	return out
}

func (r *MessageReplyStore) ListBySenderUser(_ context.Context, userID uuid.UUID) ([]models.MessageReply, error) {
	return r.listWhere(func(m models.MessageReply) bool { return m.SenderUserID == userID }), nil
}

func (r *MessageReplyStore) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]models.MessageReply, error) {
	return r.listWhere(func(m models.MessageReply) bool { return m.RestaurantID == restaurantID }), nil
}

func (r *MessageReplyStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	return len(r.listWhere(func(m models.MessageReply) bool {
		return m.SenderUserID == userID && !m.IsRead
	})), nil
}

func (r *MessageReplyStore) MarkRead(_ context.Context, replyID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reply, ok := r.s.messageReplies[replyID]
	if !ok || reply.SenderUserID != userID {
		return false, nil
	}
	reply.IsRead = true
	r.s.messageReplies[replyID] = reply
	return true, nil
}

// Insert stores a reply as-is, skipping the uniqueness check and the
// parent status update. Tests use it to simulate rows written before
// reply creation became atomic.
func (r *MessageReplyStore) Insert(reply models.MessageReply) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if reply.ID == uuid.Nil {
		reply.ID = uuid.New()
	}
	r.s.messageReplies[reply.ID] = reply
}

// ---------------------------------------------------------------
// Restaurant messages
// ---------------------------------------------------------------

type RestaurantMessageStore struct{ s *Store }

var _ repository.RestaurantMessageRepository = (*RestaurantMessageStore)(nil)

func (rm *RestaurantMessageStore) Create(_ context.Context, msg *models.RestaurantMessage) error {
	rm.s.mu.Lock()
	defer rm.s.mu.Unlock()

	msg.ID = uuid.New()
	msg.CreatedAt = rm.s.now()
	rm.s.restaurantMessages[msg.ID] = *msg
	return nil
}

func (rm *RestaurantMessageStore) GetByID(_ context.Context, id uuid.UUID) (*models.RestaurantMessage, error) {
	rm.s.mu.RLock()
	defer rm.s.mu.RUnlock()

	m, ok := rm.s.restaurantMessages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func matchRestaurantMessage(m models.RestaurantMessage, f models.RestaurantMessageFilter) bool {
	if f.RestaurantID != nil && m.RestaurantID != *f.RestaurantID {
		return false
	}
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	return true
}

func (rm *RestaurantMessageStore) List(_ context.Context, filter models.RestaurantMessageFilter) ([]models.RestaurantMessage, error) {
	rm.s.mu.RLock()
	defer rm.s.mu.RUnlock()

	out := make([]models.RestaurantMessage, 0)
	for _, m := range rm.s.restaurantMessages {
		if matchRestaurantMessage(m, filter) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return truncate(out, filter.Limit), nil
}

func (rm *RestaurantMessageStore) Count(_ context.Context, filter models.RestaurantMessageFilter) (int, error) {
	rm.s.mu.RLock()
	defer rm.s.mu.RUnlock()

	n := 0
	for _, m := range rm.s.restaurantMessages {
		if matchRestaurantMessage(m, filter) {
			n++
		}
	}
	return n, nil
}

func (rm *RestaurantMessageStore) MarkRead(_ context.Context, id uuid.UUID) (*models.RestaurantMessage, error) {
	rm.s.mu.Lock()
	defer rm.s.mu.Unlock()

	m, ok := rm.s.restaurantMessages[id]
	if !ok {
		return nil, nil
	}
	if m.Status == models.StatusUnread {
		m.Status = models.StatusRead
		rm.s.restaurantMessages[id] = m
	}
	return &m, nil
}

// ---------------------------------------------------------------
// Admin replies
// ---------------------------------------------------------------

type AdminReplyStore struct{ s *Store }

var _ repository.AdminReplyRepository = (*AdminReplyStore)(nil)

func (a *AdminReplyStore) Create(_ context.Context, reply *models.AdminReply) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	for _, existing := range a.s.adminReplies {
		if existing.OriginalMessageID == reply.OriginalMessageID {
			return repository.ErrConflict
		}
	}

	reply.ID = uuid.New()
	reply.CreatedAt = a.s.now()
	a.s.adminReplies[reply.ID] = *reply

	if parent, ok := a.s.restaurantMessages[reply.OriginalMessageID]; ok {
		parent.Status = models.StatusReplied
		a.s.restaurantMessages[parent.ID] = parent
	}
	return nil
}

func (a *AdminReplyStore) ListByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]models.AdminReply, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	out := make([]models.AdminReply, 0)
	for _, reply := range a.s.adminReplies {
		if reply.RestaurantID == restaurantID {
			out = append(out, reply)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return newerFirst(out[i].CreatedAt, out[j].CreatedAt, out[i].ID, out[j].ID)
	})
	return out, nil
}

func (a *AdminReplyStore) CountUnread(_ context.Context, restaurantID uuid.UUID) (int, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	n := 0
	for _, reply := range a.s.adminReplies {
		if reply.RestaurantID == restaurantID && reply.Status == models.AdminReplyUnread {
			n++
		}
	}
	return n, nil
}

func (a *AdminReplyStore) MarkRead(_ context.Context, replyID, restaurantID uuid.UUID) (bool, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	reply, ok := a.s.adminReplies[replyID]
	if !ok || reply.RestaurantID != restaurantID {
		return false, nil
	}
	reply.Status = models.AdminReplyRead
	a.s.adminReplies[replyID] = reply
	return true, nil
}

// ---------------------------------------------------------------
// Reconciler
// ---------------------------------------------------------------

type ReconcileStore struct{ s *Store }

var _ repository.ThreadReconciler = (*ReconcileStore)(nil)

func (rc *ReconcileStore) ReconcileContactThreads(_ context.Context) (int64, error) {
	rc.s.mu.Lock()
	defer rc.s.mu.Unlock()

	var fixed int64
	for _, reply := range rc.s.messageReplies {
		parent, ok := rc.s.contactMessages[reply.OriginalMessageID]
		if ok && parent.Status != models.StatusReplied {
			parent.Status = models.StatusReplied
			rc.s.contactMessages[parent.ID] = parent
			fixed++
		}
	}
	return fixed, nil
}

func (rc *ReconcileStore) ReconcileRestaurantThreads(_ context.Context) (int64, error) {
	rc.s.mu.Lock()
	defer rc.s.mu.Unlock()

	var fixed int64
	for _, reply := range rc.s.adminReplies {
		parent, ok := rc.s.restaurantMessages[reply.OriginalMessageID]
		if ok && parent.Status != models.StatusReplied {
			parent.Status = models.StatusReplied
			rc.s.restaurantMessages[parent.ID] = parent
			fixed++
		}
	}
	return fixed, nil
}

// ---------------------------------------------------------------
// helpers
// ---------------------------------------------------------------

// newerFirst orders by timestamp descending, breaking ties on id so the
// order is stable between calls.
func newerFirst(ti, tj time.Time, idi, idj uuid.UUID) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi.String() > idj.String()
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// cloneContactMessage copies the pointer fields so callers can't mutate
// stored state through the returned value.
func cloneContactMessage(m models.ContactMessage) models.ContactMessage {
	if m.RestaurantID != nil {
		id := *m.RestaurantID
		m.RestaurantID = &id
	}
	if m.SenderUserID != nil {
		id := *m.SenderUserID
		m.SenderUserID = &id
	}
	return m
}
