package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository reads and writes stations. Methods take the database handle so
// callers can pass a transaction when station status must move atomically
// with session rows.
type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Station, error)
	GetByMAC(ctx context.Context, db *gorm.DB, mac string) (*Station, error)
	List(ctx context.Context, db *gorm.DB) ([]Station, error)
	Create(ctx context.Context, db *gorm.DB, station *Station) error
	Update(ctx context.Context, db *gorm.DB, station *Station) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) error
}
