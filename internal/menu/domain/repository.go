package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MenuItem, error)
	List(ctx context.Context, db *gorm.DB) ([]MenuItem, error)
	Create(ctx context.Context, db *gorm.DB, item *MenuItem) error
	Update(ctx context.Context, db *gorm.DB, item *MenuItem) error
}
