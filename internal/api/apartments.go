package api

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/models"
)

func (h *Handler) ListApartments(c *gin.Context) {
	apartments, err := h.service.ListApartments(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, apartments)
}

func (h *Handler) GetApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	apartment, err := h.service.GetApartment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, apartment)
}

// bindApartment reads the form fields and the optional "image" part.
func bindApartment(c *gin.Context) (models.ApartmentRequest, *multipart.FileHeader, bool) {
	var req models.ApartmentRequest
	if err := c.ShouldBind(&req); err != nil {
		respondInvalidPayload(c, err)
		return req, nil, false
	}
	image, err := optionalFile(c, "image")
	if err != nil {
		respondInvalidPayload(c, err)
		return req, nil, false
	}
	return req, image, true
}

func (h *Handler) CreateApartment(c *gin.Context) {
	req, image, ok := bindApartment(c)
	if !ok {
		return
	}

	apartment, err := h.service.CreateApartment(c.Request.Context(), actorFrom(c), req, image)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusCreated, apartment)
}

// UpdateApartment edits an apartment. Without an "image" part the stored
// image is kept.
func (h *Handler) UpdateApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, image, ok := bindApartment(c)
	if !ok {
		return
	}

	apartment, err := h.service.UpdateApartment(c.Request.Context(), actorFrom(c), id, req, image)
	if err != nil {
		respondError(c, err, req)
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *Handler) DeleteApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteApartment(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetApartmentImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	img, err := h.service.GetApartmentImage(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	writeImage(c, img)
}

func (h *Handler) ListAvailableApartments(c *gin.Context) {
	apartments, err := h.service.ListAvailableApartments(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, apartments)
}

func (h *Handler) GetAvailableApartment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	apartment, err := h.service.GetAvailableApartment(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, apartment)
}

func (h *Handler) GetAvailableApartmentImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	img, err := h.service.GetAvailableApartmentImage(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err, nil)
		return
	}
	writeImage(c, img)
}
