// Package domain contains the station registry models.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusAvailable   Status = "available"
	StatusOccupied    Status = "occupied"
	StatusMaintenance Status = "maintenance"
)

type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// Station is a physical billable unit with a configured hourly rate.
// Rates are integers in piasters per hour.
type Station struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"type:text;not null" json:"name"`
	HourlyRate      int64        `gorm:"not null" json:"hourly_rate"`
	MultiHourlyRate *int64       `json:"multi_hourly_rate,omitempty"`
	Status          Status       `gorm:"type:text;not null;default:available" json:"status"`
	MACAddress      *string      `gorm:"column:mac_address" json:"mac_address,omitempty"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (Station) TableName() string { return "stations" }

// RateFor returns the hourly rate for a play mode. Stations without a
// dedicated multi-player rate bill multi-player time at the single rate.
func (s Station) RateFor(mode Mode) int64 {
	if mode == ModeMulti && s.MultiHourlyRate != nil {
		return *s.MultiHourlyRate
	}
	return s.HourlyRate
}

var (
	ErrStationNotFound    = errors.New("station_not_found")
	ErrStationMaintenance = errors.New("station_in_maintenance")
	ErrInvalidMode        = errors.New("invalid_mode")
)

// ParseMode validates a mode string, defaulting empty input to single-player.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeSingle, ModeMulti:
		return Mode(raw), nil
	case "":
		return ModeSingle, nil
	default:
		return "", ErrInvalidMode
	}
}
