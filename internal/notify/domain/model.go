// Package domain defines the notification outbox. Billing transitions append
// events in the same transaction as their session rows; delivery happens
// out-of-band so a failed notification can never roll back billing state.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type EventType string

const (
	EventSessionStarted     EventType = "session_started"
	EventSessionEnded       EventType = "session_ended"
	EventSessionTransferred EventType = "session_transferred"
	EventTimerWarning       EventType = "timer_warning"
	EventTimerExpired       EventType = "timer_expired"
	EventCostLimitReached   EventType = "cost_limit_reached"
)

type SessionEvent struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	SessionID    snowflake.ID   `gorm:"not null" json:"session_id"`
	StationID    snowflake.ID   `gorm:"not null" json:"station_id"`
	EventType    EventType      `gorm:"type:text;not null" json:"event_type"`
	Payload      datatypes.JSON `json:"payload,omitempty"`
	DispatchedAt *time.Time     `json:"dispatched_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (SessionEvent) TableName() string { return "session_events" }

// Notifier is a delivery sink. Implementations are fire-and-forget from the
// billing engine's perspective; a returned error is logged, never propagated
// into a state transition.
type Notifier interface {
	Notify(ctx context.Context, event SessionEvent) error
}
