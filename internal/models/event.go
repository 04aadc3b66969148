package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события учётной записи.
type EventType string

const (
	EventRegistered      EventType = "account.registered"
	EventUpdated         EventType = "account.updated"
	EventPasswordChanged EventType = "account.password_changed"
	EventDeleted         EventType = "account.deleted"
)

// AccountEvent публикуется после успешного изменения учётной записи.
type AccountEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAccountEvent создаёт событие с новым идентификатором.
func NewAccountEvent(eventType EventType, user *User) AccountEvent {
	return AccountEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
}
