package models

import (
	"time"

	"github.com/rongwang/property-rental-server/internal/apperrors"
)

// Request models

type SignUpRequest struct {
	Username        string `json:"username" validate:"required,max=50"`
	FirstName       string `json:"first_name" validate:"required,max=50,personname"`
	LastName        string `json:"last_name" validate:"required,max=50,personname"`
	Email           string `json:"email" validate:"required,email,max=100"`
	PhoneNumber     string `json:"phone_number" validate:"required,phone"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=Owner Manager Tenant"`
}

type LoginRequest struct {
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required"`
	KeepLoggedIn bool   `json:"keep_logged_in"`
}

// BuildingRequest is used for create and edit. On edit the code comes from
// the path and RowVersion must carry the version that was loaded.
type BuildingRequest struct {
	Code        string `json:"code" validate:"required,max=7"`
	OwnerID     int64  `json:"owner_id" validate:"required,gt=0"`
	ManagerID   *int64 `json:"manager_id" validate:"omitempty,gt=0"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=100"`
	Address     string `json:"address" validate:"required,max=100"`
	City        string `json:"city" validate:"required,max=100"`
	Province    string `json:"province" validate:"required,max=100"`
	ZipCode     string `json:"zip_code" validate:"required,zipcode"`
	RowVersion  int64  `json:"row_version"`
}

// ApartmentRequest is bound from a multipart form; the optional image is
// read separately from the "image" part.
type ApartmentRequest struct {
	Code            string  `form:"code" json:"code" validate:"required,max=10"`
	BuildingCode    string  `form:"building_code" json:"building_code" validate:"required,max=7"`
	ApartmentTypeID int64   `form:"apartment_type_id" json:"apartment_type_id" validate:"required,gt=0"`
	Description     string  `form:"description" json:"description" validate:"required,max=100"`
	Rent            float64 `form:"rent" json:"rent" validate:"required,gt=0"`
	StatusID        int64   `form:"status_id" json:"status_id" validate:"required,gt=0"`
	RowVersion      int64   `form:"row_version" json:"row_version"`
}

// AppointmentRequest carries no tenant, manager or status: those are
// derived by the server.
type AppointmentRequest struct {
	ApartmentID         int64     `json:"apartment_id" validate:"required,gt=0"`
	AppointmentDateTime time.Time `json:"appointment_datetime" validate:"required"`
	Description         string    `json:"description" validate:"max=100"`
}

type EventRequest struct {
	ApartmentID int64  `json:"apartment_id" validate:"required,gt=0"`
	Description string `json:"description" validate:"required,max=100"`
	EventDate   string `json:"event_date" validate:"required,datetime=2006-01-02"`
	StatusID    int64  `json:"status_id" validate:"required,gt=0"`
	RowVersion  int64  `json:"row_version"`
}

type MessageRequest struct {
	ReceiverUserID int64  `json:"receiver_user_id" validate:"required,gt=0"`
	Subject        string `json:"subject" validate:"required,max=100"`
	Body           string `json:"body" validate:"required,max=2000"`
}

// TenantEditRequest updates a tenant's profile. An empty Password keeps the
// current one.
type TenantEditRequest struct {
	Username    string `json:"username" validate:"required,max=50"`
	FirstName   string `json:"first_name" validate:"required,max=50,personname"`
	LastName    string `json:"last_name" validate:"required,max=50,personname"`
	Email       string `json:"email" validate:"required,email,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
	Password    string `json:"password" validate:"omitempty,password"`
}

// TenantSearch filters the tenant roster. An empty Term lists everyone.
type TenantSearch struct {
	SearchBy string `form:"search_by" json:"search_by" validate:"omitempty,oneof=user_id first_name last_name email username phone_number"`
	Term     string `form:"term" json:"term" validate:"max=100"`
	Strict   bool   `form:"strict" json:"strict"`
}

// Response models

type AuthResponse struct {
	Status    string `json:"status"`
	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// ProfileResponse is the dashboard of the signed-in user. Stats are only
// filled for owners.
type ProfileResponse struct {
	User  User            `json:"user"`
	Stats *DashboardStats `json:"stats,omitempty"`
}

type DashboardStats struct {
	Tenants    int `json:"tenants"`
	Managers   int `json:"managers"`
	OpenEvents int `json:"open_events"`
}

// AppointmentView is an appointment with its party names resolved.
type AppointmentView struct {
	Appointment
	TenantName  string `json:"tenant_name"`
	ManagerName string `json:"manager_name,omitempty"`
	Status      string `json:"status"`
}

// MessageView is a message with its party names resolved.
type MessageView struct {
	Message
	SenderName   string `json:"sender_name"`
	ReceiverName string `json:"receiver_name"`
	Status       string `json:"status"`
}

type EventView struct {
	Event
	ManagerName string `json:"manager_name"`
	Status      string `json:"status"`
}

type ApartmentView struct {
	Apartment
	Status string `json:"status"`
}

// Contact is an eligible message receiver.
type Contact struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details []apperrors.FieldError `json:"details,omitempty"`
	Input   interface{}            `json:"input,omitempty"`
}
