package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playdenlabs/playden/internal/clock"
	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	menurepository "github.com/playdenlabs/playden/internal/menu/repository"
	notifydomain "github.com/playdenlabs/playden/internal/notify/domain"
	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	sessionrepository "github.com/playdenlabs/playden/internal/session/repository"
	sessionservice "github.com/playdenlabs/playden/internal/session/service"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
	stationrepository "github.com/playdenlabs/playden/internal/station/repository"
)

type controllerFixture struct {
	ctrl     presencedomain.Controller
	tracker  *RedisTracker
	sessions sessiondomain.Service
	db       *gorm.DB
	clock    *clock.Fake
	redis    *miniredis.Miniredis
	station  stationdomain.Station
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tracker := NewRedisTracker(client)

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

	sessions := sessionservice.NewService(sessionservice.ServiceParam{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        sessionrepository.NewRepository(),
		StationRepo: stationrepository.NewRepository(),
		MenuRepo:    menurepository.NewRepository(),
		Cooldowns:   tracker,
	})

	ctrl := NewController(ControllerParam{
		Log:      zap.NewNop(),
		Tracker:  tracker,
		Sessions: sessions,
	})

	station := stationdomain.Station{
		ID:         node.Generate(),
		Name:       "PS5",
		HourlyRate: 6000,
		Status:     stationdomain.StatusAvailable,
	}
	require.NoError(t, db.Create(&station).Error)

	return &controllerFixture{
		ctrl:     ctrl,
		tracker:  tracker,
		sessions: sessions,
		db:       db,
		clock:    fake,
		redis:    mr,
		station:  station,
	}
}

func (f *controllerFixture) event(state presencedomain.State) presencedomain.Event {
	return presencedomain.Event{
		StationID:  f.station.ID,
		State:      state,
		ObservedAt: f.clock.Now(context.Background()),
	}
}

func TestAutoStartOnUpEdge(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))

	session, err := f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, sessiondomain.StartedByAuto, session.StartedBy)
	assert.Equal(t, sessiondomain.StateRunning, session.State())

	// Level-triggered repeats change nothing.
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	var count int64
	require.NoError(t, f.db.Model(&sessiondomain.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPauseOnDownResumeOnUp(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	started, err := f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.NotNil(t, started)

	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateDown)))
	paused, err := f.sessions.Get(ctx, started.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StatePaused, paused.State())

	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	resumed, err := f.sessions.Get(ctx, started.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sessiondomain.StateRunning, resumed.State())
	assert.Equal(t, int64(5*60*1000), resumed.TotalPausedMs)

	// The same session kept going; no auto-start replaced it.
	var count int64
	require.NoError(t, f.db.Model(&sessiondomain.Session{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestManualEndCooldownSuppressesAutoStart(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	started, err := f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.NotNil(t, started)

	// Operator ends while the console is still on.
	_, err = f.sessions.End(ctx, sessiondomain.EndSessionRequest{SessionID: started.ID.String()})
	require.NoError(t, err)
	cooling, err := f.tracker.CooldownActive(ctx, f.station.ID)
	require.NoError(t, err)
	assert.True(t, cooling)

	// Still up: no new session while the cooldown holds. Force an edge by
	// clearing the remembered state, as a restart would.
	require.NoError(t, f.tracker.SetLastState(ctx, f.station.ID, presencedomain.StateUnknown))
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	active, err := f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	// A genuine power-off clears the cooldown, so the next boot starts fresh.
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateDown)))
	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	active, err = f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sessiondomain.StartedByAuto, active.StartedBy)
}

func TestCooldownExpires(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.tracker.SetCooldown(ctx, f.station.ID, 5*time.Minute))
	cooling, err := f.tracker.CooldownActive(ctx, f.station.ID)
	require.NoError(t, err)
	assert.True(t, cooling)

	f.redis.FastForward(6 * time.Minute)
	cooling, err = f.tracker.CooldownActive(ctx, f.station.ID)
	require.NoError(t, err)
	assert.False(t, cooling)

	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateUp)))
	active, err := f.sessions.ActiveByStation(ctx, f.station.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
}

func TestDownWithoutSessionIsHarmless(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ctrl.Handle(ctx, f.event(presencedomain.StateDown)))
	var count int64
	require.NoError(t, f.db.Model(&sessiondomain.Session{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
