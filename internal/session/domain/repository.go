package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists sessions and their satellite rows. Methods take the
// database handle so the state machine can run whole operations inside one
// transaction; the partial unique index on (station_id) WHERE ended_at IS
// NULL is the serialization point for concurrent starts.
type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Session, error)
	GetActiveByStation(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*Session, error)
	LastEndedByStation(ctx context.Context, db *gorm.DB, stationID snowflake.ID) (*Session, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]Session, error)
	ListRunning(ctx context.Context, db *gorm.DB) ([]Session, error)
	ListEnded(ctx context.Context, db *gorm.DB, beforeID snowflake.ID, limit int) ([]Session, error)
	CountEnded(ctx context.Context, db *gorm.DB) (int64, error)
	Create(ctx context.Context, db *gorm.DB, session *Session) error
	Update(ctx context.Context, db *gorm.DB, session *Session) error

	OpenSegment(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) (*Segment, error)
	ListSegments(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]Segment, error)
	CreateSegment(ctx context.Context, db *gorm.DB, segment *Segment) error
	UpdateSegment(ctx context.Context, db *gorm.DB, segment *Segment) error

	GetOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	ListOrders(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]Order, error)
	CreateOrder(ctx context.Context, db *gorm.DB, order *Order) error
	DeleteOrder(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	GetCharge(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Charge, error)
	ListCharges(ctx context.Context, db *gorm.DB, sessionID snowflake.ID) ([]Charge, error)
	CreateCharge(ctx context.Context, db *gorm.DB, charge *Charge) error
	UpdateCharge(ctx context.Context, db *gorm.DB, charge *Charge) error
	DeleteCharge(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	CreateTransfer(ctx context.Context, db *gorm.DB, transfer *Transfer) error
}
