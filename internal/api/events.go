package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/models"
)

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListManagedApartments returns the apartments the manager can log events for.
func (h *Handler) ListManagedApartments(c *gin.Context) {
	apartments, err := h.service.ListManagedApartments(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, apartments)
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	event, err := h.service.GetEvent(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	event, err := h.service.CreateEvent(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	event, err := h.service.UpdateEvent(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteEvent(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
