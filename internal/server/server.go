// Package server exposes the operator HTTP API over gin. Handlers stay thin:
// bind, delegate to a service, map the domain error onto an HTTP status.
package server

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type ServerParam struct {
	fx.In

	DB         *gorm.DB
	Redis      *redis.Client
	Log        *zap.Logger
	StationSvc stationdomain.Service
	SessionSvc sessiondomain.Service
	MenuRepo   menudomain.Repository
	Presence   presencedomain.Controller
	GenID      *snowflake.Node
}

type Server struct {
	db         *gorm.DB
	redis      *redis.Client
	log        *zap.Logger
	stationSvc stationdomain.Service
	sessionSvc sessiondomain.Service
	menuRepo   menudomain.Repository
	presence   presencedomain.Controller
	genID      *snowflake.Node
}

func NewServer(p ServerParam) *Server {
	return &Server{
		db:         p.DB,
		redis:      p.Redis,
		log:        p.Log.Named("server"),
		stationSvc: p.StationSvc,
		sessionSvc: p.SessionSvc,
		menuRepo:   p.MenuRepo,
		presence:   p.Presence,
		genID:      p.GenID,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.GET("/stations", s.ListStations)
		v1.POST("/stations", s.CreateStation)
		v1.GET("/stations/:id", s.GetStation)
		v1.PATCH("/stations/:id", s.UpdateStation)
		v1.GET("/stations/:id/snapshot", s.StationSnapshot)

		v1.GET("/menu-items", s.ListMenuItems)
		v1.POST("/menu-items", s.CreateMenuItem)
		v1.PATCH("/menu-items/:id", s.UpdateMenuItem)

		v1.GET("/sessions", s.SessionHistory)
		v1.GET("/sessions/active", s.ListActiveSessions)
		v1.POST("/sessions", s.StartSession)
		v1.GET("/sessions/:id", s.GetSession)
		v1.POST("/sessions/:id/pause", s.PauseSession)
		v1.POST("/sessions/:id/resume", s.ResumeSession)
		v1.POST("/sessions/:id/mode", s.SwitchMode)
		v1.POST("/sessions/:id/station", s.SwitchStation)
		v1.POST("/sessions/:id/end", s.EndSession)
		v1.POST("/sessions/:id/transfer", s.TransferSession)

		v1.POST("/sessions/:id/orders", s.AddOrder)
		v1.DELETE("/sessions/:id/orders/:orderID", s.RemoveOrder)
		v1.POST("/sessions/:id/charges", s.AddCharge)
		v1.PATCH("/sessions/:id/charges/:chargeID", s.UpdateCharge)
		v1.DELETE("/sessions/:id/charges/:chargeID", s.DeleteCharge)

		v1.PUT("/sessions/:id/timer", s.SetTimer)
		v1.PUT("/sessions/:id/cost-limit", s.SetCostLimit)
		v1.PATCH("/sessions/:id/start-time", s.UpdateStartTime)

		v1.POST("/presence/events", s.PresenceEvent)
	}

	return r
}

// Readiness verifies the database and redis are reachable. The process is
// alive either way; orchestration should hold traffic until this passes.
func (s *Server) Readiness(c *gin.Context) {
	ctx := c.Request.Context()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = pingDB(ctx, sqlDB)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
		return
	}

	if err := s.redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "redis"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func pingDB(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
