// Package domain contains the session billing models: sessions, segments,
// orders, charges and transfer audit records. All monetary values are
// integers in piasters; no floating point enters cost computation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

type StartedBy string

const (
	StartedByManual StartedBy = "manual"
	StartedByAuto   StartedBy = "auto"
)

// Session is one customer occupancy of one station, bounded by start/end.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StationID snowflake.ID `gorm:"not null;index" json:"station_id"`
	StartedAt time.Time    `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at,omitempty"`

	CurrentMode stationdomain.Mode `gorm:"type:text;not null;default:single" json:"current_mode"`
	// HourlyRate is the rate snapshot for the current mode, captured at start
	// or mode switch and immune to later station rate changes.
	HourlyRate int64 `gorm:"not null" json:"hourly_rate"`

	PausedAt      *time.Time `json:"paused_at,omitempty"`
	TotalPausedMs int64      `gorm:"not null;default:0" json:"total_paused_ms"`

	OrdersCost      int64 `gorm:"not null;default:0" json:"orders_cost"`
	ExtraCharges    int64 `gorm:"not null;default:0" json:"extra_charges"`
	TransferredCost int64 `gorm:"not null;default:0" json:"transferred_cost"`
	// TotalCost is the gaming cost only, set once at end.
	TotalCost *int64 `json:"total_cost,omitempty"`

	TimerMinutes      *int64 `json:"timer_minutes,omitempty"`
	TimerNotified     bool   `gorm:"not null;default:false" json:"timer_notified"`
	CostLimit         *int64 `json:"cost_limit,omitempty"`
	CostLimitNotified bool   `gorm:"not null;default:false" json:"cost_limit_notified"`

	StartedBy StartedBy `gorm:"type:text;not null;default:manual" json:"started_by"`
	Notes     string    `gorm:"type:text;not null;default:''" json:"notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// State derives the lifecycle state; the nullable timestamps are never
// interpreted anywhere else.
func (s Session) State() State {
	switch {
	case s.EndedAt != nil:
		return StateEnded
	case s.PausedAt != nil:
		return StatePaused
	default:
		return StateRunning
	}
}

// Segment is one contiguous (mode, rate) interval within a session timeline.
// A session has exactly one open segment while unended.
type Segment struct {
	ID         snowflake.ID       `gorm:"primaryKey" json:"id"`
	SessionID  snowflake.ID       `gorm:"not null;index" json:"session_id"`
	Mode       stationdomain.Mode `gorm:"type:text;not null" json:"mode"`
	StartedAt  time.Time          `gorm:"not null" json:"started_at"`
	EndedAt    *time.Time         `json:"ended_at,omitempty"`
	HourlyRate int64              `gorm:"not null" json:"hourly_rate"`
	CreatedAt  time.Time          `gorm:"not null" json:"created_at"`
}

func (Segment) TableName() string { return "segments" }

// Order records a menu item sold against a session at the price in effect
// when it was ordered.
type Order struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	SessionID  snowflake.ID `gorm:"not null;index" json:"session_id"`
	MenuItemID snowflake.ID `gorm:"not null" json:"menu_item_id"`
	Quantity   int64        `gorm:"not null" json:"quantity"`
	UnitPrice  int64        `gorm:"not null" json:"unit_price"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// Charge is a free-form debit or credit against a session.
type Charge struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SessionID snowflake.ID `gorm:"not null;index" json:"session_id"`
	Amount    int64        `gorm:"not null" json:"amount"`
	Reason    string       `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Charge) TableName() string { return "charges" }

// Transfer is the immutable audit record of cost moved between sessions.
type Transfer struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	FromSessionID snowflake.ID `gorm:"not null" json:"from_session_id"`
	ToSessionID   snowflake.ID `gorm:"not null" json:"to_session_id"`
	FromStationID snowflake.ID `gorm:"not null" json:"from_station_id"`
	GamingAmount  int64        `gorm:"not null" json:"gaming_amount"`
	OrdersAmount  int64        `gorm:"not null" json:"orders_amount"`
	TotalAmount   int64        `gorm:"not null" json:"total_amount"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
}

func (Transfer) TableName() string { return "transfers" }

// StationSnapshot is the live view of a station for the operator UI: its
// active (or most recent) session plus derived elapsed time and cost.
type StationSnapshot struct {
	Station        stationdomain.Station `json:"station"`
	Session        *Session              `json:"session,omitempty"`
	ElapsedMinutes int64                 `json:"elapsed_minutes"`
	GamingCost     int64                 `json:"gaming_cost"`
	TotalBill      int64                 `json:"total_bill"`
}
