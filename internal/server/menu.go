package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
)

type createMenuItemRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type updateMenuItemRequest struct {
	Name      *string `json:"name,omitempty"`
	Price     *int64  `json:"price,omitempty"`
	Available *bool   `json:"available,omitempty"`
}

func (s *Server) ListMenuItems(c *gin.Context) {
	items, err := s.menuRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondList(c, items, nil)
}

func (s *Server) CreateMenuItem(c *gin.Context) {
	var req createMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price < 0 {
		AbortWithError(c, errInvalidRequest)
		return
	}

	now := time.Now().UTC()
	item := menudomain.MenuItem{
		ID:        s.genID.Generate(),
		Name:      req.Name,
		Price:     req.Price,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.menuRepo.Create(c.Request.Context(), s.db, &item); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

func (s *Server) UpdateMenuItem(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, menudomain.ErrMenuItemNotFound)
		return
	}

	var req updateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, errInvalidRequest)
		return
	}

	item, err := s.menuRepo.Get(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			AbortWithError(c, errInvalidRequest)
			return
		}
		item.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			AbortWithError(c, errInvalidRequest)
			return
		}
		item.Price = *req.Price
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.menuRepo.Update(c.Request.Context(), s.db, item); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}
