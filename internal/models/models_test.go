package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestContactMessage_IsAnonymous(t *testing.T) {
	id := uuid.New()
	nilID := uuid.Nil

	assert.True(t, (&ContactMessage{}).IsAnonymous())
	assert.True(t, (&ContactMessage{SenderUserID: &nilID}).IsAnonymous())
	assert.False(t, (&ContactMessage{SenderUserID: &id}).IsAnonymous())
}

func TestContactMessage_VisibleTo(t *testing.T) {
	ours, theirs := uuid.New(), uuid.New()

	assert.True(t, (&ContactMessage{}).VisibleTo(ours), "unaddressed")
	assert.True(t, (&ContactMessage{RestaurantID: &ours}).VisibleTo(ours))
	assert.False(t, (&ContactMessage{RestaurantID: &theirs}).VisibleTo(ours))
}

func TestEnumValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
	assert.True(t, StatusReplied.Valid())
	assert.False(t, MessageStatus("archived").Valid())
	assert.True(t, SenderRestaurant.Valid())
	assert.False(t, SenderKind("").Valid())
}
