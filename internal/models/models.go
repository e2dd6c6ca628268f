package models

import (
	"time"
)

// User represents an account holder. Role is one of Owner, Manager, Tenant.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Building is identified by its code. ManagerID is optional.
type Building struct {
	Code        string `db:"code" json:"code"`
	OwnerID     int64  `db:"owner_id" json:"owner_id"`
	ManagerID   *int64 `db:"manager_id" json:"manager_id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Address     string `db:"address" json:"address"`
	City        string `db:"city" json:"city"`
	Province    string `db:"province" json:"province"`
	ZipCode     string `db:"zip_code" json:"zip_code"`
	RowVersion  int64  `db:"row_version" json:"row_version"`
}

// ApartmentType is a lookup row (Studio, One Bedroom, ...).
type ApartmentType struct {
	ID          int64  `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
}

// Apartment belongs to one building. The image bytes are loaded
// separately; HasImage tells whether one is stored.
type Apartment struct {
	ID              int64   `db:"id" json:"id"`
	Code            string  `db:"code" json:"code"`
	BuildingCode    string  `db:"building_code" json:"building_code"`
	ApartmentTypeID int64   `db:"apartment_type_id" json:"apartment_type_id"`
	Description     string  `db:"description" json:"description"`
	Rent            float64 `db:"rent" json:"rent"`
	StatusID        int64   `db:"status_id" json:"status_id"`
	HasImage        bool    `db:"has_image" json:"has_image"`
	RowVersion      int64   `db:"row_version" json:"row_version"`
}

// ApartmentImage is the stored upload of an apartment.
type ApartmentImage struct {
	Data        []byte `db:"image"`
	ContentType string `db:"image_content_type"`
}

// Appointment is a tenant's viewing request. ManagerID is derived from the
// apartment's building at creation time and may be nil.
type Appointment struct {
	ID                  int64     `db:"id" json:"id"`
	TenantID            int64     `db:"tenant_id" json:"tenant_id"`
	ManagerID           *int64    `db:"manager_id" json:"manager_id"`
	ApartmentID         int64     `db:"apartment_id" json:"apartment_id"`
	AppointmentDateTime time.Time `db:"appointment_datetime" json:"appointment_datetime"`
	Description         string    `db:"description" json:"description"`
	StatusID            int64     `db:"status_id" json:"status_id"`
	RowVersion          int64     `db:"row_version" json:"row_version"`
}

// Event is a maintenance ticket on an apartment.
type Event struct {
	ID          int64     `db:"id" json:"id"`
	ManagerID   int64     `db:"manager_id" json:"manager_id"`
	ApartmentID int64     `db:"apartment_id" json:"apartment_id"`
	Description string    `db:"description" json:"description"`
	EventDate   time.Time `db:"event_date" json:"event_date"`
	StatusID    int64     `db:"status_id" json:"status_id"`
	RowVersion  int64     `db:"row_version" json:"row_version"`
}

// Message is an internal message between two users.
type Message struct {
	ID              int64     `db:"id" json:"id"`
	SenderUserID    int64     `db:"sender_user_id" json:"sender_user_id"`
	ReceiverUserID  int64     `db:"receiver_user_id" json:"receiver_user_id"`
	Subject         string    `db:"subject" json:"subject"`
	Body            string    `db:"body" json:"body"`
	MessageDateTime time.Time `db:"message_datetime" json:"message_datetime"`
	StatusID        int64     `db:"status_id" json:"status_id"`
	RowVersion      int64     `db:"row_version" json:"row_version"`
}

// Status is a category-scoped lookup row.
type Status struct {
	ID          int64  `db:"id" json:"id"`
	Description string `db:"description" json:"description"`
	Category    string `db:"category" json:"category"`
}
