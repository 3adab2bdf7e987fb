package server

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	presencedomain "github.com/playdenlabs/playden/internal/presence/domain"
	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

type presenceEventRequest struct {
	StationID  string     `json:"station_id"`
	MAC        string     `json:"mac"`
	State      string     `json:"state"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// PresenceEvent is the push path for presence: hotspot hooks or agents POST
// device up/down transitions here instead of (or alongside) the poll loop.
func (s *Server) PresenceEvent(c *gin.Context) {
	var req presenceEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	state := presencedomain.State(req.State)
	if state != presencedomain.StateUp && state != presencedomain.StateDown {
		AbortWithError(c, errInvalidRequest)
		return
	}

	stationID, err := snowflake.ParseString(req.StationID)
	if err != nil {
		AbortWithError(c, stationdomain.ErrStationNotFound)
		return
	}

	observedAt := time.Now().UTC()
	if req.ObservedAt != nil {
		observedAt = req.ObservedAt.UTC()
	}

	event := presencedomain.Event{
		StationID:  stationID,
		MAC:        req.MAC,
		State:      state,
		ObservedAt: observedAt,
	}
	if err := s.presence.Handle(c.Request.Context(), event); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"accepted": true})
}
