package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	menurepository "github.com/playdenlabs/playden/internal/menu/repository"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	sessionrepository "github.com/playdenlabs/playden/internal/session/repository"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
	stationrepository "github.com/playdenlabs/playden/internal/station/repository"
)

type cooldownRecorder struct {
	mu       sync.Mutex
	stations []snowflake.ID
}

func (c *cooldownRecorder) SetCooldown(_ context.Context, stationID snowflake.ID, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stations = append(c.stations, stationID)
	return nil
}

type fixture struct {
	svc       sessiondomain.Service
	db        *gorm.DB
	clock     *clock.Fake
	node      *snowflake.Node
	cooldowns *cooldownRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&stationdomain.Station{},
		&menudomain.MenuItem{},
		&sessiondomain.Session{},
		&sessiondomain.Segment{},
		&sessiondomain.Order{},
		&sessiondomain.Charge{},
		&sessiondomain.Transfer{},
		&notifydomain.SessionEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFake(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	cooldowns := &cooldownRecorder{}

	svc := NewService(ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        sessionrepository.NewRepository(),
		StationRepo: stationrepository.NewRepository(),
		MenuRepo:    menurepository.NewRepository(),
		Cooldowns:   cooldowns,
	})

	return &fixture{svc: svc, db: db, clock: fake, node: node, cooldowns: cooldowns}
}

func (f *fixture) createStation(t *testing.T, rate int64, multiRate *int64) stationdomain.Station {
	t.Helper()
	station := stationdomain.Station{
		ID:              f.node.Generate(),
		Name:            "PS5",
		HourlyRate:      rate,
		MultiHourlyRate: multiRate,
		Status:          stationdomain.StatusAvailable,
	}
	require.NoError(t, f.db.Create(&station).Error)
	return station
}

func (f *fixture) createMenuItem(t *testing.T, price int64, available bool) menudomain.MenuItem {
	t.Helper()
	item := menudomain.MenuItem{
		ID:        f.node.Generate(),
		Name:      "Soda",
		Price:     price,
		Available: available,
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func (f *fixture) start(t *testing.T, stationID snowflake.ID) *sessiondomain.Session {
	t.Helper()
	session, err := f.svc.Start(context.Background(), sessiondomain.StartSessionRequest{
		StationID: stationID.String(),
	})
	require.NoError(t, err)
	return session
}

func ptr[T any](v T) *T { return &v }

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)

	session := f.start(t, station.ID)
	assert.Equal(t, sessiondomain.StateRunning, session.State())
	assert.Equal(t, int64(6000), session.HourlyRate)
	assert.Equal(t, stationdomain.ModeSingle, session.CurrentMode)

	var got stationdomain.Station
	require.NoError(t, f.db.First(&got, "id = ?", station.ID).Error)
	assert.Equal(t, stationdomain.StatusOccupied, got.Status)

	var events []notifydomain.SessionEvent
	require.NoError(t, f.db.Where("session_id = ?", session.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, notifydomain.EventSessionStarted, events[0].EventType)

	_, err := f.svc.Start(ctx, sessiondomain.StartSessionRequest{StationID: station.ID.String()})
	assert.ErrorIs(t, err, sessiondomain.ErrStationBusy)
}

func TestStartSessionMaintenance(t *testing.T) {
	f := newFixture(t)
	station := f.createStation(t, 6000, nil)
	require.NoError(t, f.db.Model(&stationdomain.Station{}).
		Where("id = ?", station.ID).
		Update("status", stationdomain.StatusMaintenance).Error)

	_, err := f.svc.Start(context.Background(), sessiondomain.StartSessionRequest{
		StationID: station.ID.String(),
	})
	assert.ErrorIs(t, err, stationdomain.ErrStationMaintenance)
}

func TestStartSessionMultiMode(t *testing.T) {
	f := newFixture(t)
	station := f.createStation(t, 4000, ptr[int64](6000))

	session, err := f.svc.Start(context.Background(), sessiondomain.StartSessionRequest{
		StationID: station.ID.String(),
		Mode:      "multi",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6000), session.HourlyRate)

	_, err = f.svc.Start(context.Background(), sessiondomain.StartSessionRequest{
		StationID: station.ID.String(),
		Mode:      "triple",
	})
	assert.ErrorIs(t, err, stationdomain.ErrInvalidMode)
}

func TestPauseFreezesBilling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// 6000/hr is 100 per minute.
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)

	f.clock.Advance(30 * time.Minute)
	paused, err := f.svc.Pause(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StatePaused, paused.State())

	// Idempotent.
	again, err := f.svc.Pause(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StatePaused, again.State())

	// Twenty minutes of pause cost nothing.
	f.clock.Advance(20 * time.Minute)
	snap, err := f.svc.StationSnapshot(ctx, station.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), snap.GamingCost)
	assert.Equal(t, int64(30), snap.ElapsedMinutes)

	resumed, err := f.svc.Resume(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StateRunning, resumed.State())
	assert.Equal(t, int64(20*60*1000), resumed.TotalPausedMs)

	f.clock.Advance(20 * time.Minute)
	ended, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{SessionID: session.ID.String()})
	require.NoError(t, err)
	require.NotNil(t, ended.TotalCost)
	assert.Equal(t, int64(5000), *ended.TotalCost)
}

func TestResumeRunningIsNoop(t *testing.T) {
	f := newFixture(t)
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)

	resumed, err := f.svc.Resume(context.Background(), session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StateRunning, resumed.State())
	assert.Zero(t, resumed.TotalPausedMs)
}

func TestSwitchModeSplitsSegments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 3000, ptr[int64](6000))
	session := f.start(t, station.ID)

	f.clock.Advance(time.Hour)
	switched, err := f.svc.SwitchMode(ctx, session.ID.String(), "multi")
	require.NoError(t, err)
	assert.Equal(t, stationdomain.ModeMulti, switched.CurrentMode)
	assert.Equal(t, int64(6000), switched.HourlyRate)

	f.clock.Advance(30 * time.Minute)
	ended, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{SessionID: session.ID.String()})
	require.NoError(t, err)
	// 60 min at 3000/hr plus 30 min at 6000/hr.
	assert.Equal(t, int64(6000), *ended.TotalCost)
}

func TestSwitchModeWhilePaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 3000, ptr[int64](6000))
	session := f.start(t, station.ID)

	f.clock.Advance(10 * time.Minute)
	_, err := f.svc.Pause(ctx, session.ID.String())
	require.NoError(t, err)

	switched, err := f.svc.SwitchMode(ctx, session.ID.String(), "multi")
	require.NoError(t, err)
	assert.Equal(t, stationdomain.ModeMulti, switched.CurrentMode)
	assert.Equal(t, sessiondomain.StatePaused, switched.State())

	// No new segment until resume.
	var count int64
	require.NoError(t, f.db.Model(&sessiondomain.Segment{}).
		Where("session_id = ?", session.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	resumed, err := f.svc.Resume(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(6000), resumed.HourlyRate)
}

func TestEndWithCustomTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)
	item := f.createMenuItem(t, 2000, true)

	_, err := f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  session.ID.String(),
		MenuItemID: item.ID.String(),
		Quantity:   1,
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	ended, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{
		SessionID:       session.ID.String(),
		CustomTotalCost: ptr[int64](10000),
	})
	require.NoError(t, err)
	// Gaming share is the override minus the 2000 in orders.
	assert.Equal(t, int64(8000), *ended.TotalCost)

	_, err = f.svc.End(ctx, sessiondomain.EndSessionRequest{SessionID: session.ID.String()})
	assert.ErrorIs(t, err, sessiondomain.ErrSessionEnded)
}

func TestEndCustomTotalClampsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)
	item := f.createMenuItem(t, 5000, true)

	_, err := f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  session.ID.String(),
		MenuItemID: item.ID.String(),
		Quantity:   1,
	})
	require.NoError(t, err)

	ended, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{
		SessionID:       session.ID.String(),
		CustomTotalCost: ptr[int64](1000),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), *ended.TotalCost)
}

func TestEndSetsCooldownAndReleasesStation(t *testing.T) {
	f := newFixture(t)
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)

	_, err := f.svc.End(context.Background(), sessiondomain.EndSessionRequest{
		SessionID: session.ID.String(),
	})
	require.NoError(t, err)

	var got stationdomain.Station
	require.NoError(t, f.db.First(&got, "id = ?", station.ID).Error)
	assert.Equal(t, stationdomain.StatusAvailable, got.Status)
	require.Len(t, f.cooldowns.stations, 1)
	assert.Equal(t, station.ID, f.cooldowns.stations[0])
}

func TestTransferMovesBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	source := f.createStation(t, 6000, nil)
	target := f.createStation(t, 3000, nil)

	sourceSession := f.start(t, source.ID)
	targetSession := f.start(t, target.ID)
	item := f.createMenuItem(t, 500, true)

	_, err := f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  sourceSession.ID.String(),
		MenuItemID: item.ID.String(),
		Quantity:   1,
	})
	require.NoError(t, err)
	_, err = f.svc.AddCharge(ctx, sessiondomain.AddChargeRequest{
		SessionID: sourceSession.ID.String(),
		Amount:    1000,
		Reason:    "broken controller",
	})
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	transfer, err := f.svc.Transfer(ctx, sessiondomain.TransferSessionRequest{
		FromSessionID: sourceSession.ID.String(),
		ToSessionID:   targetSession.ID.String(),
	})
	require.NoError(t, err)
	// 6000 gaming plus the 1000 charge; the order stays behind.
	assert.Equal(t, int64(6000), transfer.GamingAmount)
	assert.Equal(t, int64(0), transfer.OrdersAmount)
	assert.Equal(t, int64(7000), transfer.TotalAmount)

	gotTarget, err := f.svc.Get(ctx, targetSession.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(7000), gotTarget.TransferredCost)

	gotSource, err := f.svc.Get(ctx, sourceSession.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StateEnded, gotSource.State())
	assert.Equal(t, int64(0), *gotSource.TotalCost)
	assert.Equal(t, int64(0), gotSource.ExtraCharges)
	assert.Equal(t, int64(500), gotSource.OrdersCost)

	var got stationdomain.Station
	require.NoError(t, f.db.First(&got, "id = ?", source.ID).Error)
	assert.Equal(t, stationdomain.StatusAvailable, got.Status)
}

func TestTransferToSelf(t *testing.T) {
	f := newFixture(t)
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)

	_, err := f.svc.Transfer(context.Background(), sessiondomain.TransferSessionRequest{
		FromSessionID: session.ID.String(),
		ToSessionID:   session.ID.String(),
	})
	assert.ErrorIs(t, err, sessiondomain.ErrTransferToSelf)
}

func TestSwitchStation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createStation(t, 6000, nil)
	second := f.createStation(t, 3000, nil)
	third := f.createStation(t, 3000, nil)

	session := f.start(t, first.ID)
	f.start(t, third.ID)

	_, err := f.svc.SwitchStation(ctx, session.ID.String(), first.ID.String())
	assert.ErrorIs(t, err, sessiondomain.ErrSameStation)

	_, err = f.svc.SwitchStation(ctx, session.ID.String(), third.ID.String())
	assert.ErrorIs(t, err, sessiondomain.ErrStationBusy)

	moved, err := f.svc.SwitchStation(ctx, session.ID.String(), second.ID.String())
	require.NoError(t, err)
	assert.Equal(t, second.ID, moved.StationID)
	assert.Contains(t, moved.Notes, "moved from station")

	var got stationdomain.Station
	require.NoError(t, f.db.First(&got, "id = ?", first.ID).Error)
	assert.Equal(t, stationdomain.StatusAvailable, got.Status)
	require.NoError(t, f.db.First(&got, "id = ?", second.ID).Error)
	assert.Equal(t, stationdomain.StatusOccupied, got.Status)
}

func TestOrdersAndCharges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)
	item := f.createMenuItem(t, 1000, true)
	disabled := f.createMenuItem(t, 1000, false)

	order, err := f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  session.ID.String(),
		MenuItemID: item.ID.String(),
		Quantity:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.UnitPrice)

	got, err := f.svc.Get(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.OrdersCost)

	_, err = f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  session.ID.String(),
		MenuItemID: disabled.ID.String(),
		Quantity:   1,
	})
	assert.ErrorIs(t, err, menudomain.ErrMenuItemDisabled)

	_, err = f.svc.AddOrder(ctx, sessiondomain.AddOrderRequest{
		SessionID:  session.ID.String(),
		MenuItemID: item.ID.String(),
		Quantity:   0,
	})
	assert.ErrorIs(t, err, sessiondomain.ErrInvalidQuantity)

	require.NoError(t, f.svc.RemoveOrder(ctx, session.ID.String(), order.ID.String()))
	got, err = f.svc.Get(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.OrdersCost)

	_, err = f.svc.AddCharge(ctx, sessiondomain.AddChargeRequest{
		SessionID: session.ID.String(),
		Amount:    0,
	})
	assert.ErrorIs(t, err, sessiondomain.ErrInvalidAmount)

	charge, err := f.svc.AddCharge(ctx, sessiondomain.AddChargeRequest{
		SessionID: session.ID.String(),
		Amount:    2000,
		Reason:    "lost controller",
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateCharge(ctx, sessiondomain.UpdateChargeRequest{
		SessionID: session.ID.String(),
		ChargeID:  charge.ID.String(),
		Amount:    ptr[int64](1500),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), updated.Amount)

	got, err = f.svc.Get(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1500), got.ExtraCharges)

	require.NoError(t, f.svc.DeleteCharge(ctx, session.ID.String(), charge.ID.String()))
	got, err = f.svc.Get(ctx, session.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ExtraCharges)
}

func TestUpdateStartTimeRecomputesEndedTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)
	originalStart := f.clock.Now(ctx)

	f.clock.Advance(time.Hour)
	ended, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{SessionID: session.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(6000), *ended.TotalCost)

	corrected, err := f.svc.UpdateStartTime(ctx, sessiondomain.UpdateStartTimeRequest{
		SessionID: session.ID.String(),
		StartedAt: originalStart.Add(30 * time.Minute),
		Note:      "customer arrived late",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), *corrected.TotalCost)
	assert.Contains(t, corrected.Notes, "start time corrected")
	assert.Contains(t, corrected.Notes, "customer arrived late")
}

func TestSetTimerAndCostLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)
	session := f.start(t, station.ID)

	updated, err := f.svc.SetTimer(ctx, session.ID.String(), ptr[int64](60))
	require.NoError(t, err)
	require.NotNil(t, updated.TimerMinutes)
	assert.Equal(t, int64(60), *updated.TimerMinutes)
	assert.False(t, updated.TimerNotified)

	_, err = f.svc.SetTimer(ctx, session.ID.String(), ptr[int64](-5))
	assert.ErrorIs(t, err, sessiondomain.ErrInvalidAmount)

	updated, err = f.svc.SetCostLimit(ctx, session.ID.String(), ptr[int64](10000))
	require.NoError(t, err)
	require.NotNil(t, updated.CostLimit)
	assert.Equal(t, int64(10000), *updated.CostLimit)

	// Clearing re-arms nothing; both alerts gone.
	updated, err = f.svc.SetTimer(ctx, session.ID.String(), nil)
	require.NoError(t, err)
	assert.Nil(t, updated.TimerMinutes)
}

func TestHistoryPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	station := f.createStation(t, 6000, nil)

	for i := 0; i < 3; i++ {
		session := f.start(t, station.ID)
		f.clock.Advance(10 * time.Minute)
		_, err := f.svc.End(ctx, sessiondomain.EndSessionRequest{SessionID: session.ID.String()})
		require.NoError(t, err)
	}

	page, err := f.svc.History(ctx, sessiondomain.HistoryRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Sessions, 2)
	assert.Equal(t, int64(3), page.PageInfo.TotalCount)
	require.NotEmpty(t, page.PageInfo.NextPageToken)

	next, err := f.svc.History(ctx, sessiondomain.HistoryRequest{
		PageSize:  2,
		PageToken: page.PageInfo.NextPageToken,
	})
	require.NoError(t, err)
	assert.Len(t, next.Sessions, 1)
	// Newest first, no overlap between pages.
	assert.True(t, next.Sessions[0].ID < page.Sessions[1].ID)
}
