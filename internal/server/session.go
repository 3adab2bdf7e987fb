package server

import (
	"github.com/gin-gonic/gin"

	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

func (s *Server) ListActiveSessions(c *gin.Context) {
	sessions, err := s.sessionSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, sessions, nil)
}

func (s *Server) SessionHistory(c *gin.Context) {
	var req sessiondomain.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	resp, err := s.sessionSvc.History(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, resp.Sessions, &resp.PageInfo)
}

func (s *Server) StartSession(c *gin.Context) {
	var req sessiondomain.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.Start(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) GetSession(c *gin.Context) {
	session, err := s.sessionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) PauseSession(c *gin.Context) {
	session, err := s.sessionSvc.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) ResumeSession(c *gin.Context) {
	session, err := s.sessionSvc.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) SwitchMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.SwitchMode(c.Request.Context(), c.Param("id"), req.Mode)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) SwitchStation(c *gin.Context) {
	var req struct {
		StationID string `json:"station_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.SwitchStation(c.Request.Context(), c.Param("id"), req.StationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) EndSession(c *gin.Context) {
	var req sessiondomain.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.SessionID = c.Param("id")

	session, err := s.sessionSvc.End(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) TransferSession(c *gin.Context) {
	var req sessiondomain.TransferSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.FromSessionID = c.Param("id")

	transfer, err := s.sessionSvc.Transfer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, transfer)
}

func (s *Server) AddOrder(c *gin.Context) {
	var req sessiondomain.AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.SessionID = c.Param("id")

	order, err := s.sessionSvc.AddOrder(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, order)
}

func (s *Server) RemoveOrder(c *gin.Context) {
	if err := s.sessionSvc.RemoveOrder(c.Request.Context(), c.Param("id"), c.Param("orderID")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"removed": true})
}

func (s *Server) AddCharge(c *gin.Context) {
	var req sessiondomain.AddChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.SessionID = c.Param("id")

	charge, err := s.sessionSvc.AddCharge(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, charge)
}

func (s *Server) UpdateCharge(c *gin.Context) {
	var req sessiondomain.UpdateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.SessionID = c.Param("id")
	req.ChargeID = c.Param("chargeID")

	charge, err := s.sessionSvc.UpdateCharge(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, charge)
}

func (s *Server) DeleteCharge(c *gin.Context) {
	if err := s.sessionSvc.DeleteCharge(c.Request.Context(), c.Param("id"), c.Param("chargeID")); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"deleted": true})
}

func (s *Server) SetTimer(c *gin.Context) {
	var req struct {
		Minutes *int64 `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.SetTimer(c.Request.Context(), c.Param("id"), req.Minutes)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) SetCostLimit(c *gin.Context) {
	var req struct {
		Limit *int64 `json:"limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.SetCostLimit(c.Request.Context(), c.Param("id"), req.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}

func (s *Server) UpdateStartTime(c *gin.Context) {
	var req sessiondomain.UpdateStartTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.SessionID = c.Param("id")
	if req.StartedAt.IsZero() {
		AbortWithError(c, errInvalidRequest)
		return
	}

	session, err := s.sessionSvc.UpdateStartTime(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, session)
}
