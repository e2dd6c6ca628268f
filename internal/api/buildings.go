package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/models"
)

func (h *Handler) ListBuildings(c *gin.Context) {
	buildings, err := h.service.ListBuildings(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

func (h *Handler) GetBuilding(c *gin.Context) {
	building, err := h.service.GetBuilding(c.Request.Context(), actorFrom(c), c.Param("code"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, building)
}

func (h *Handler) CreateBuilding(c *gin.Context) {
	var req models.BuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	building, err := h.service.CreateBuilding(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, building)
}

// UpdateBuilding edits the building in the path. The body must carry the
// row_version that was read.
func (h *Handler) UpdateBuilding(c *gin.Context) {
	var req models.BuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	building, err := h.service.UpdateBuilding(c.Request.Context(), actorFrom(c), c.Param("code"), req)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusOK, building)
}

func (h *Handler) DeleteBuilding(c *gin.Context) {
	if err := h.service.DeleteBuilding(c.Request.Context(), actorFrom(c), c.Param("code")); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
