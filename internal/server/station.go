package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	stationdomain "github.com/playdenlabs/playden/internal/station/domain"
)

func (s *Server) ListStations(c *gin.Context) {
	stations, err := s.stationSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, stations, nil)
}

func (s *Server) CreateStation(c *gin.Context) {
	var req stationdomain.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	station, err := s.stationSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, station)
}

func (s *Server) GetStation(c *gin.Context) {
	station, err := s.stationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, station)
}

func (s *Server) UpdateStation(c *gin.Context) {
	var req stationdomain.UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.ID = c.Param("id")

	station, err := s.stationSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, station)
}

// StationSnapshot is the operator dashboard view: live cost for an active
// session, final figures for the last ended one.
func (s *Server) StationSnapshot(c *gin.Context) {
	snapshot, err := s.sessionSvc.StationSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, snapshot)
}
