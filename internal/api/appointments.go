package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
)

func (h *Handler) ListAppointments(c *gin.Context) {
	appointments, err := h.service.ListAppointments(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	appointment, err := h.service.GetAppointment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, appointment)
}

// CreateAppointment books a viewing for the signed-in tenant. Tenant,
// manager and status are never read from the body.
func (h *Handler) CreateAppointment(c *gin.Context) {
	var req models.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	appointment, err := h.service.CreateAppointment(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transitionAppointment(c, h.service.ConfirmAppointment)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transitionAppointment(c, h.service.CancelAppointment)
}

type appointmentTransition func(ctx context.Context, actor policy.Actor, id int64) (*models.AppointmentView, error)

func (h *Handler) transitionAppointment(c *gin.Context, transition appointmentTransition) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	appointment, err := transition(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, appointment)
}
