package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/property-rental-server/internal/apperrors"
	"github.com/rongwang/property-rental-server/internal/auth"
	"github.com/rongwang/property-rental-server/internal/models"
	"github.com/rongwang/property-rental-server/internal/policy"
	"github.com/rongwang/property-rental-server/internal/service"
)

// Handler serves the HTTP API on top of a Service.
type Handler struct {
	service      service.Service
	tokens       *auth.TokenService
	cookieSecure bool
}

// NewHandler creates a new Handler. cookieSecure marks the session cookie
// Secure; enable it whenever the server is reached over TLS.
func NewHandler(svc service.Service, tokens *auth.TokenService, cookieSecure bool) *Handler {
	return &Handler{service: svc, tokens: tokens, cookieSecure: cookieSecure}
}

// SetupRoutes registers middleware and every route on router.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(RequestLogger(), IdentityResolver(h.tokens))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gate := RequireRoles
	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
	}

	api.GET("/me", gate(policy.Profile, policy.ActionView), h.Profile)

	lookups := api.Group("/lookups", gate(policy.Lookups, policy.ActionList))
	{
		lookups.GET("/statuses", h.ListStatuses)
		lookups.GET("/apartment-types", h.ListApartmentTypes)
	}

	buildings := api.Group("/buildings")
	{
		buildings.GET("", gate(policy.Buildings, policy.ActionList), h.ListBuildings)
		buildings.POST("", gate(policy.Buildings, policy.ActionCreate), h.CreateBuilding)
		buildings.GET("/:code", gate(policy.Buildings, policy.ActionView), h.GetBuilding)
		buildings.PUT("/:code", gate(policy.Buildings, policy.ActionEdit), h.UpdateBuilding)
		buildings.DELETE("/:code", gate(policy.Buildings, policy.ActionDelete), h.DeleteBuilding)
	}

	apartments := api.Group("/apartments")
	{
		apartments.GET("", gate(policy.Apartments, policy.ActionList), h.ListApartments)
		apartments.POST("", gate(policy.Apartments, policy.ActionCreate), h.CreateApartment)
		apartments.GET("/:id", gate(policy.Apartments, policy.ActionView), h.GetApartment)
		apartments.PUT("/:id", gate(policy.Apartments, policy.ActionEdit), h.UpdateApartment)
		apartments.DELETE("/:id", gate(policy.Apartments, policy.ActionDelete), h.DeleteApartment)
		apartments.GET("/:id/image", gate(policy.Apartments, policy.ActionView), h.GetApartmentImage)
	}

	available := api.Group("/available-apartments")
	{
		available.GET("", gate(policy.AvailableApartments, policy.ActionList), h.ListAvailableApartments)
		available.GET("/:id", gate(policy.AvailableApartments, policy.ActionView), h.GetAvailableApartment)
		available.GET("/:id/image", gate(policy.AvailableApartments, policy.ActionView), h.GetAvailableApartmentImage)
	}

	tenants := api.Group("/tenants")
	{
		tenants.GET("", gate(policy.Tenants, policy.ActionList), h.ListTenants)
		tenants.GET("/:id", gate(policy.Tenants, policy.ActionView), h.GetTenant)
		tenants.PUT("/:id", gate(policy.Tenants, policy.ActionEdit), h.UpdateTenant)
		tenants.DELETE("/:id", gate(policy.Tenants, policy.ActionDelete), h.DeleteTenant)
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", gate(policy.Appointments, policy.ActionList), h.ListAppointments)
		appointments.POST("", gate(policy.Appointments, policy.ActionCreate), h.CreateAppointment)
		appointments.GET("/:id", gate(policy.Appointments, policy.ActionView), h.GetAppointment)
		appointments.POST("/:id/confirm", gate(policy.Appointments, policy.ActionTransition), h.ConfirmAppointment)
		appointments.POST("/:id/cancel", gate(policy.Appointments, policy.ActionTransition), h.CancelAppointment)
	}

	events := api.Group("/events")
	{
		events.GET("", gate(policy.Events, policy.ActionList), h.ListEvents)
		events.POST("", gate(policy.Events, policy.ActionCreate), h.CreateEvent)
		events.GET("/apartments", gate(policy.Events, policy.ActionCreate), h.ListManagedApartments)
		events.GET("/:id", gate(policy.Events, policy.ActionView), h.GetEvent)
		events.PUT("/:id", gate(policy.Events, policy.ActionEdit), h.UpdateEvent)
		events.DELETE("/:id", gate(policy.Events, policy.ActionDelete), h.DeleteEvent)
	}

	messages := api.Group("/messages")
	{
		messages.GET("", gate(policy.Messages, policy.ActionList), h.ListMessages)
		messages.POST("", gate(policy.Messages, policy.ActionCreate), h.CreateMessage)
		messages.GET("/contacts", gate(policy.Messages, policy.ActionCreate), h.ListContacts)
		messages.GET("/:id", gate(policy.Messages, policy.ActionView), h.GetMessage)
	}
}

// SignUp handles user registration
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	resp, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		echo := req
		echo.Password, echo.ConfirmPassword = "", ""
		respondError(c, err, echo)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles user login. The token is returned in the body and set as
// an HttpOnly cookie; keep_logged_in makes the cookie outlive the browser
// session.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		echo := req
		echo.Password = ""
		respondError(c, err, echo)
		return
	}

	maxAge := 0
	if req.KeepLoggedIn {
		maxAge = resp.ExpiresIn
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, resp.Token, maxAge, "/", "", h.cookieSecure, true)

	c.JSON(http.StatusOK, resp)
}

// Logout clears the session cookie. Bearer tokens simply expire.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, models.AuthResponse{Status: "success"})
}

func (h *Handler) Profile(c *gin.Context) {
	profile, err := h.service.Profile(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) ListStatuses(c *gin.Context) {
	statuses, err := h.service.ListStatuses(c.Request.Context(), actorFrom(c), c.Query("category"))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *Handler) ListApartmentTypes(c *gin.Context) {
	types, err := h.service.ListApartmentTypes(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, types)
}

// pathID parses a positive integer path parameter, responding with a
// validation error otherwise.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.Field(name, "Id must be a positive whole number.", "validation_gt"), nil)
		return 0, false
	}
	return id, true
}

// optionalFile returns the uploaded file for field, or nil when the
// request carries none.
func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return fh, err
}

// writeImage sends stored image bytes unchanged.
func writeImage(c *gin.Context, img *models.ApartmentImage) {
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, img.Data)
}
