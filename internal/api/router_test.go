package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/safebytes/internal/auth"
	"github.com/lalith-99/safebytes/internal/models"
	"github.com/lalith-99/safebytes/internal/repository/memory"
	"github.com/lalith-99/safebytes/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, checks map[string]HealthCheck, exposeDetails bool) *testServer {
	t.Helper()
	store := memory.NewStore()
	svc := service.NewThreadService(service.Repositories{
		Users:              store.Users(),
		ContactMessages:    store.ContactMessages(),
		MessageReplies:     store.MessageReplies(),
		RestaurantMessages: store.RestaurantMessages(),
		AdminReplies:       store.AdminReplies(),
	})
	r, err := NewRouter(RouterDeps{
		Users:         store.Users(),
		Threads:       svc,
		HealthChecks:  checks,
		JWTSecret:     testSecret,
		TokenTTL:      time.Hour,
		Logger:        zap.NewNop(),
		ExposeDetails: exposeDetails,
	})
	require.NoError(t, err)
	return &testServer{t: t, router: r, store: store}
}

// account creates a user directly in the store and returns it with a token.
func (s *testServer) account(email, name string, role models.Role) (*models.User, string) {
	s.t.Helper()
	u, err := s.store.Users().Create(context.Background(), email, name, "unused", role)
	require.NoError(s.t, err)
	token, err := auth.GenerateToken(u.ID, u.Email, testSecret, time.Hour)
	require.NoError(s.t, err)
	return u, token
}

type response struct {
	Code    int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func (s *testServer) do(method, path, token string, body any) response {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp response
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	resp.Code = rec.Code
	return resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func contactForm(body string) gin.H {
	return gin.H{
		"name":    "Alice",
		"email":   "a@x.com",
		"subject": "Peanut info",
		"body":    body,
	}
}

// ---------------------------------------------------------------------------
// health
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	s := newTestServer(t, map[string]HealthCheck{"postgres": ok}, false)
	resp := s.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"postgres":"ok"`)

	s = newTestServer(t, map[string]HealthCheck{"postgres": ok, "redis": down}, false)
	resp = s.do(http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"redis":"down"`)
	assert.NotContains(t, string(resp.Data), "refused")
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func TestSignupLoginMe(t *testing.T) {
	s := newTestServer(t, nil, false)

	resp := s.do(http.MethodPost, "/v1/auth/signup", "", gin.H{
		"email":        "Chef@Bistro.com",
		"password":     "correct-horse",
		"display_name": "Bistro",
		"role":         "restaurant",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	signup := decode[authResponse](t, resp.Data)
	assert.NotEmpty(t, signup.Token)
	assert.Equal(t, "chef@bistro.com", signup.User.Email)
	assert.Equal(t, models.RoleRestaurant, signup.User.Role)
	assert.NotContains(t, string(resp.Data), "correct-horse")
	assert.NotContains(t, string(resp.Data), "password")

	// wrong role: the restaurant account is not a "user" account
	resp = s.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "chef@bistro.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = s.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "chef@bistro.com", "password": "wrong-password", "role": "restaurant",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "invalid email or password", resp.Message)

	resp = s.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "chef@bistro.com", "password": "correct-horse", "role": "restaurant",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	login := decode[authResponse](t, resp.Data)

	resp = s.do(http.MethodGet, "/v1/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	me := decode[models.User](t, resp.Data)
	assert.Equal(t, signup.User.ID, me.ID)
	assert.Equal(t, "Bistro", me.DisplayName)
}

func TestSignup_Rejections(t *testing.T) {
	s := newTestServer(t, nil, true)

	base := func() gin.H {
		return gin.H{"email": "u@x.com", "password": "long-enough", "display_name": "U"}
	}

	resp := s.do(http.MethodPost, "/v1/auth/signup", "", base())
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = s.do(http.MethodPost, "/v1/auth/signup", "", base())
	assert.Equal(t, http.StatusConflict, resp.Code)

	tests := []struct {
		name   string
		mutate func(gin.H)
	}{
		{"admin is not self-service", func(b gin.H) { b["role"] = "admin" }},
		{"blank display name", func(b gin.H) { b["display_name"] = "   " }},
		{"short password", func(b gin.H) { b["password"] = "short" }},
		{"bad email", func(b gin.H) { b["email"] = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := base()
			body["email"] = "other@x.com"
			tt.mutate(body)
			resp := s.do(http.MethodPost, "/v1/auth/signup", "", body)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Details)
		})
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t, nil, false)
	for _, path := range []string{"/v1/users/me", "/v1/users/me/replies", "/v1/restaurants/me/contact-messages"} {
		resp := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}
}

// ---------------------------------------------------------------------------
// contact messages and replies
// ---------------------------------------------------------------------------

func TestContactThread_EndToEnd(t *testing.T) {
	s := newTestServer(t, nil, false)
	diner, dinerToken := s.account("alice@x.com", "Alice", models.RoleUser)
	restaurant, restaurantToken := s.account("chef@bistro.com", "Bistro", models.RoleRestaurant)

	resp := s.do(http.MethodPost, "/v1/contact-messages", dinerToken, contactForm("Does dish X contain peanuts?"))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	msg := decode[models.ContactMessage](t, resp.Data)
	require.NotNil(t, msg.SenderUserID)
	assert.Equal(t, diner.ID, *msg.SenderUserID)
	assert.Equal(t, models.StatusUnread, msg.Status)

	resp = s.do(http.MethodGet, "/v1/restaurants/me/contact-messages", restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	inbox := decode[service.Inbox[models.ContactMessage]](t, resp.Data)
	require.Len(t, inbox.Items, 1)
	assert.Equal(t, 1, inbox.Unread)

	// Recipient fields in the body are ignored.
	mallory := uuid.New()
	resp = s.do(http.MethodPost, "/v1/contact-messages/"+msg.ID.String()+"/replies", restaurantToken, gin.H{
		"reply_message":  "No peanuts.",
		"sender_user_id": mallory,
		"restaurant_id":  mallory,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	reply := decode[models.MessageReply](t, resp.Data)
	assert.Equal(t, diner.ID, reply.SenderUserID)
	assert.Equal(t, restaurant.ID, reply.RestaurantID)
	assert.Equal(t, "Does dish X contain peanuts?", reply.OriginalMessage)

	resp = s.do(http.MethodGet, "/v1/contact-messages/"+msg.ID.String(), restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.StatusReplied, decode[models.ContactMessage](t, resp.Data).Status)

	resp = s.do(http.MethodPost, "/v1/contact-messages/"+msg.ID.String()+"/replies", restaurantToken, gin.H{
		"reply_message": "Again",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = s.do(http.MethodGet, "/v1/users/me/replies", dinerToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	mine := decode[service.Inbox[models.MessageReply]](t, resp.Data)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, 1, mine.Unread)
	assert.False(t, mine.Items[0].IsRead)

	// Someone else can't mark it read, and learns nothing about it.
	_, strangerToken := s.account("eve@x.com", "Eve", models.RoleUser)
	resp = s.do(http.MethodPatch, "/v1/replies/"+reply.ID.String()+"/read", strangerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(http.MethodPatch, "/v1/replies/"+reply.ID.String()+"/read", dinerToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = s.do(http.MethodGet, "/v1/users/me/replies", dinerToken, nil)
	mine = decode[service.Inbox[models.MessageReply]](t, resp.Data)
	assert.Zero(t, mine.Unread)
	assert.True(t, mine.Items[0].IsRead)

	resp = s.do(http.MethodGet, "/v1/restaurants/me/replies", restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[[]models.MessageReply](t, resp.Data), 1)

	// markRead after a reply keeps "replied"
	resp = s.do(http.MethodPatch, "/v1/contact-messages/"+msg.ID.String()+"/read", restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.StatusReplied, decode[models.ContactMessage](t, resp.Data).Status)
}

func TestContactThread_AnonymousCannotBeReplied(t *testing.T) {
	s := newTestServer(t, nil, false)
	_, restaurantToken := s.account("chef@bistro.com", "Bistro", models.RoleRestaurant)

	resp := s.do(http.MethodPost, "/v1/contact-messages", "", contactForm("Anyone?"))
	require.Equal(t, http.StatusCreated, resp.Code)
	msg := decode[models.ContactMessage](t, resp.Data)
	assert.Nil(t, msg.SenderUserID)

	resp = s.do(http.MethodPost, "/v1/contact-messages/"+msg.ID.String()+"/replies", restaurantToken, gin.H{
		"reply_message": "Hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Message, "anonymous")

	_, replies, _, _ := s.store.Counts()
	assert.Zero(t, replies)
}

func TestSubmitContactMessage_Rejections(t *testing.T) {
	s := newTestServer(t, nil, false)

	resp := s.do(http.MethodPost, "/v1/contact-messages", "garbage-token", contactForm("hi"))
	assert.Equal(t, http.StatusUnauthorized, resp.Code, "a bad token is not downgraded to anonymous")

	resp = s.do(http.MethodPost, "/v1/contact-messages", "", gin.H{"name": "Alice", "body": "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Message, "email")
	assert.Contains(t, resp.Message, "subject")

	resp = s.do(http.MethodPost, "/v1/contact-messages", "", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, resp.Details, "details are hidden in production")

	n, _, _, _ := s.store.Counts()
	assert.Zero(t, n)
}

func TestContactMessage_RoleAndInputErrors(t *testing.T) {
	s := newTestServer(t, nil, false)
	_, dinerToken := s.account("alice@x.com", "Alice", models.RoleUser)
	_, restaurantToken := s.account("chef@bistro.com", "Bistro", models.RoleRestaurant)
	_, adminToken := s.account("admin@x.com", "Admin", models.RoleAdmin)

	resp := s.do(http.MethodPost, "/v1/contact-messages", dinerToken, contactForm("q"))
	require.Equal(t, http.StatusCreated, resp.Code)
	msg := decode[models.ContactMessage](t, resp.Data)

	resp = s.do(http.MethodPost, "/v1/contact-messages/"+msg.ID.String()+"/replies", dinerToken, gin.H{"reply_message": "me?"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = s.do(http.MethodPost, "/v1/contact-messages/not-a-uuid/replies", restaurantToken, gin.H{"reply_message": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(http.MethodPost, "/v1/contact-messages/"+uuid.NewString()+"/replies", restaurantToken, gin.H{"reply_message": "x"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = s.do(http.MethodGet, "/v1/contact-messages?limit=0", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(http.MethodGet, "/v1/contact-messages?status=archived", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = s.do(http.MethodGet, "/v1/contact-messages?status=unread&limit=500", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[service.Inbox[models.ContactMessage]](t, resp.Data).Items, 1)

	resp = s.do(http.MethodGet, "/v1/contact-messages", restaurantToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = s.do(http.MethodDelete, "/v1/contact-messages/"+msg.ID.String(), restaurantToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	resp = s.do(http.MethodDelete, "/v1/contact-messages/"+msg.ID.String(), restaurantToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// ---------------------------------------------------------------------------
// restaurant messages and admin replies
// ---------------------------------------------------------------------------

func TestRestaurantThread_EndToEnd(t *testing.T) {
	s := newTestServer(t, nil, false)
	restaurant, restaurantToken := s.account("chef@bistro.com", "Bistro", models.RoleRestaurant)
	_, otherToken := s.account("other@r.com", "Other", models.RoleRestaurant)
	_, adminToken := s.account("admin@x.com", "Admin", models.RoleAdmin)

	resp := s.do(http.MethodPost, "/v1/restaurant-messages", restaurantToken, gin.H{
		"subject": "Menu upload", "body": "Import failed",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	msg := decode[models.RestaurantMessage](t, resp.Data)
	assert.Equal(t, "Bistro", msg.RestaurantName)

	resp = s.do(http.MethodGet, "/v1/restaurant-messages", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[service.Inbox[models.RestaurantMessage]](t, resp.Data).Unread)

	resp = s.do(http.MethodPatch, "/v1/restaurant-messages/"+msg.ID.String()+"/read", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, models.StatusRead, decode[models.RestaurantMessage](t, resp.Data).Status)

	resp = s.do(http.MethodPost, "/v1/restaurant-messages/"+msg.ID.String()+"/replies", adminToken, gin.H{
		"body":          "Fixed.",
		"restaurant_id": uuid.New(),
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Message)
	reply := decode[models.AdminReply](t, resp.Data)
	assert.Equal(t, restaurant.ID, reply.RestaurantID)
	assert.Equal(t, "Re: Menu upload", reply.Subject)

	resp = s.do(http.MethodGet, "/v1/restaurants/me/restaurant-messages", restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	outbox := decode[service.Inbox[models.RestaurantMessage]](t, resp.Data)
	require.Len(t, outbox.Items, 1)
	assert.Equal(t, models.StatusReplied, outbox.Items[0].Status)

	resp = s.do(http.MethodGet, "/v1/restaurants/me/admin-replies", restaurantToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	replies := decode[service.Inbox[models.AdminReply]](t, resp.Data)
	require.Len(t, replies.Items, 1)
	assert.Equal(t, 1, replies.Unread)

	resp = s.do(http.MethodPatch, "/v1/admin-replies/"+reply.ID.String()+"/read", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = s.do(http.MethodPatch, "/v1/admin-replies/"+reply.ID.String()+"/read", restaurantToken, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSubmitRestaurantMessage_UserRoleForbidden(t *testing.T) {
	s := newTestServer(t, nil, false)
	_, dinerToken := s.account("misconfigured@r.com", "Not A Restaurant", models.RoleUser)

	resp := s.do(http.MethodPost, "/v1/restaurant-messages", dinerToken, gin.H{"subject": "s", "body": "b"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	_, _, n, _ := s.store.Counts()
	assert.Zero(t, n)
}

// ---------------------------------------------------------------------------
// error mapping
// ---------------------------------------------------------------------------

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrMissingFields, http.StatusBadRequest},
		{fmt.Errorf("%w: name", service.ErrMissingFields), http.StatusBadRequest},
		{service.ErrInvalidField, http.StatusBadRequest},
		{service.ErrAnonymousMessage, http.StatusBadRequest},
		{fmt.Errorf("reply %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrAlreadyReplied, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFail_HidesInternalErrors(t *testing.T) {
	for _, expose := range []bool{false, true} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		responder{logger: zap.NewNop(), exposeDetails: expose}.fail(c, "list things", errors.New("pq: relation missing"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		var body envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "list things failed", body.Message)
		if expose {
			assert.Equal(t, "pq: relation missing", body.Details)
		} else {
			assert.Empty(t, body.Details)
		}
	}
}
