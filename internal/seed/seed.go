// Package seed installs demo data for a fresh deployment: a handful of
// stations and a starter menu. Idempotent; existing rows are left alone.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

func ptr[T any](v T) *T { return &v }

var demoStations = []struct {
	Name            string
	HourlyRate      int64
	MultiHourlyRate *int64
}{
	{Name: "PS5 - 1", HourlyRate: 4000, MultiHourlyRate: ptr[int64](6000)},
	{Name: "PS5 - 2", HourlyRate: 4000, MultiHourlyRate: ptr[int64](6000)},
	{Name: "PS4 - 1", HourlyRate: 2500, MultiHourlyRate: ptr[int64](3500)},
	{Name: "PC - 1", HourlyRate: 3000},
}

var demoMenu = []struct {
	Name  string
	Price int64
}{
	{Name: "Water", Price: 500},
	{Name: "Soda", Price: 1000},
	{Name: "Chips", Price: 1500},
	{Name: "Coffee", Price: 2000},
}

// Run seeds stations and menu items when their tables are empty.
func Run(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := seedStations(ctx, tx, node); err != nil {
			return fmt.Errorf("seed stations: %w", err)
		}
		if err := seedMenu(ctx, tx, node); err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}
		return nil
	})
}

func seedStations(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&stationdomain.Station{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, s := range demoStations {
		station := stationdomain.Station{
			ID:              node.Generate(),
			Name:            s.Name,
			HourlyRate:      s.HourlyRate,
			MultiHourlyRate: s.MultiHourlyRate,
			Status:          stationdomain.StatusAvailable,
		}
		if err := tx.WithContext(ctx).Create(&station).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedMenu(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var count int64
	if err := tx.WithContext(ctx).Model(&menudomain.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, m := range demoMenu {
		item := menudomain.MenuItem{
			ID:        node.Generate(),
			Name:      m.Name,
			Price:     m.Price,
			Available: true,
		}
		if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}
