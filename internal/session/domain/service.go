package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/playdenlabs/playden/pkg/db/pagination"
)

type StartSessionRequest struct {
	StationID string `json:"station_id" validate:"required"`
	// Mode defaults to single-player when empty.
	Mode      string     `json:"mode,omitempty"`
	StartedBy StartedBy  `json:"started_by,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

type EndSessionRequest struct {
	SessionID string `json:"-"`
	// CustomTotalCost is the operator override of the final bill. When set,
	// the gaming cost is back-calculated from it instead of the ledger.
	CustomTotalCost *int64 `json:"custom_total_cost,omitempty"`
}

type TransferSessionRequest struct {
	FromSessionID string `json:"-"`
	ToSessionID   string `json:"to_session_id" validate:"required"`
	IncludeOrders bool   `json:"include_orders"`
}

type AddOrderRequest struct {
	SessionID  string `json:"-"`
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

type AddChargeRequest struct {
	SessionID string `json:"-"`
	Amount    int64  `json:"amount" validate:"required"`
	Reason    string `json:"reason"`
}

type UpdateChargeRequest struct {
	SessionID string `json:"-"`
	ChargeID  string `json:"-"`
	Amount    *int64 `json:"amount,omitempty"`
	Reason    *string `json:"reason,omitempty"`
}

type HistoryRequest struct {
	PageToken string `form:"page_token"`
	PageSize  int32  `form:"page_size"`
}

type HistoryResponse struct {
	Sessions []Session
	PageInfo pagination.PageInfo
}

type UpdateStartTimeRequest struct {
	SessionID string    `json:"-"`
	StartedAt time.Time `json:"started_at" validate:"required"`
	Note      string    `json:"note"`
}

// Service is the session state machine. Every operation validates the
// current state before acting and rejects (never silently ignores) calls
// whose precondition fails, except for the idempotent pause/resume pair.
type Service interface {
	Start(ctx context.Context, req StartSessionRequest) (*Session, error)
	Pause(ctx context.Context, sessionID string) (*Session, error)
	Resume(ctx context.Context, sessionID string) (*Session, error)
	SwitchMode(ctx context.Context, sessionID, mode string) (*Session, error)
	SwitchStation(ctx context.Context, sessionID, newStationID string) (*Session, error)
	End(ctx context.Context, req EndSessionRequest) (*Session, error)
	Transfer(ctx context.Context, req TransferSessionRequest) (*Transfer, error)

	AddOrder(ctx context.Context, req AddOrderRequest) (*Order, error)
	RemoveOrder(ctx context.Context, sessionID, orderID string) error
	AddCharge(ctx context.Context, req AddChargeRequest) (*Charge, error)
	UpdateCharge(ctx context.Context, req UpdateChargeRequest) (*Charge, error)
	DeleteCharge(ctx context.Context, sessionID, chargeID string) error

	SetTimer(ctx context.Context, sessionID string, minutes *int64) (*Session, error)
	SetCostLimit(ctx context.Context, sessionID string, limit *int64) (*Session, error)
	UpdateStartTime(ctx context.Context, req UpdateStartTimeRequest) (*Session, error)

	Get(ctx context.Context, sessionID string) (*Session, error)
	ListActive(ctx context.Context) ([]Session, error)
	History(ctx context.Context, req HistoryRequest) (*HistoryResponse, error)
	StationSnapshot(ctx context.Context, stationID string) (*StationSnapshot, error)

	// ActiveByStation returns the unended session for a station, or nil.
	// The presence controller drives its transitions through this.
	ActiveByStation(ctx context.Context, stationID snowflake.ID) (*Session, error)
}
