// Package domain contains menu item models consumed by session ordering.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type MenuItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Price     int64        `gorm:"not null" json:"price"`
	Available bool         `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (MenuItem) TableName() string { return "menu_items" }

var (
	ErrMenuItemNotFound = errors.New("menu_item_not_found")
	ErrMenuItemDisabled = errors.New("menu_item_disabled")
)
