package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
)

type repository struct{}

func NewRepository() menudomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (*menudomain.MenuItem, error) {
	var item menudomain.MenuItem
	err := db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, menudomain.ErrMenuItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB) ([]menudomain.MenuItem, error) {
	var items []menudomain.MenuItem
	err := db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *repository) Create(ctx context.Context, db *gorm.DB, item *menudomain.MenuItem) error {
	return db.WithContext(ctx).Create(item).Error
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, item *menudomain.MenuItem) error {
	return db.WithContext(ctx).Save(item).Error
}
