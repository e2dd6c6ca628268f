package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/models"
)

// ListTenants returns the tenant roster, optionally filtered by
// ?search_by=&term=&strict=.
func (h *Handler) ListTenants(c *gin.Context) {
	var search models.TenantSearch
	if err := c.ShouldBindQuery(&search); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	tenants, err := h.service.ListTenants(c.Request.Context(), actorFrom(c), search)
	if err != nil {
		respondError(c, err, search)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

func (h *Handler) GetTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.service.GetTenant(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.TenantEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	tenant, err := h.service.UpdateTenant(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		echo := req
		echo.Password = ""
		respondError(c, err, echo)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTenant(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}
