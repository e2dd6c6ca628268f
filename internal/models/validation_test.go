package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSignUp() SignUpRequest {
	return SignUpRequest{
		Username:        "jdoe",
		FirstName:       "Mary-Jane",
		LastName:        "O'Neil",
		Email:           "jdoe@example.com",
		PhoneNumber:     "514-555-0100",
		Password:        "Secret#123",
		ConfirmPassword: "Secret#123",
		Role:            "Tenant",
	}
}

func TestValidateSignUp(t *testing.T) {
	v := NewValidator()

	assert.False(t, Validate(v, validSignUp()).HasErrors())

	tests := []struct {
		name   string
		mutate func(r *SignUpRequest)
		field  string
		code   string
	}{
		{"missing username", func(r *SignUpRequest) { r.Username = "" }, "username", "validation_required"},
		{"long username", func(r *SignUpRequest) { r.Username = string(make([]byte, 51)) }, "username", "validation_max"},
		{"double space in name", func(r *SignUpRequest) { r.FirstName = "Mary  Jane" }, "first_name", "validation_personname"},
		{"digit in name", func(r *SignUpRequest) { r.LastName = "B0b" }, "last_name", "validation_personname"},
		{"bad email", func(r *SignUpRequest) { r.Email = "nope" }, "email", "validation_email"},
		{"bad phone", func(r *SignUpRequest) { r.PhoneNumber = "5145550100" }, "phone_number", "validation_phone"},
		{"weak password", func(r *SignUpRequest) { r.Password, r.ConfirmPassword = "password1", "password1" }, "password", "validation_password"},
		{"short password", func(r *SignUpRequest) { r.Password, r.ConfirmPassword = "Aa1#", "Aa1#" }, "password", "validation_password"},
		{"mismatch", func(r *SignUpRequest) { r.ConfirmPassword = "Secret#124" }, "confirm_password", "validation_eqfield"},
		{"unknown role", func(r *SignUpRequest) { r.Role = "Admin" }, "role", "validation_oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignUp()
			tt.mutate(&req)
			verr := Validate(v, req)
			if assert.True(t, verr.HasErrors()) {
				assert.Equal(t, tt.field, verr.Fields[0].Field)
				assert.Equal(t, tt.code, verr.Fields[0].Code)
			}
		})
	}
}

func TestValidateBuildingZipCode(t *testing.T) {
	v := NewValidator()
	req := BuildingRequest{
		Code: "B1", OwnerID: 1, Name: "Tower", Address: "1 Main St",
		City: "Montreal", Province: "QC", ZipCode: "H2X 1Y4",
	}
	assert.False(t, Validate(v, req).HasErrors())

	for _, zip := range []string{"H2X1Y4", "22X 1Y4", "H2X-1Y4", ""} {
		req.ZipCode = zip
		assert.True(t, Validate(v, req).Has("zip_code"), zip)
	}

	req.ZipCode = "h2x 1y4"
	zero := int64(0)
	req.ManagerID = &zero
	verr := Validate(v, req)
	assert.False(t, verr.Has("zip_code"))
	assert.True(t, verr.Has("manager_id"))
}

func TestValidateAccumulatesFields(t *testing.T) {
	v := NewValidator()
	verr := Validate(v, AppointmentRequest{Description: string(make([]byte, 101))})
	assert.True(t, verr.Has("apartment_id"))
	assert.True(t, verr.Has("appointment_datetime"))
	assert.True(t, verr.Has("description"))

	verr = Validate(v, AppointmentRequest{ApartmentID: 3, AppointmentDateTime: time.Now()})
	assert.False(t, verr.HasErrors())
}

func TestValidateEventDate(t *testing.T) {
	v := NewValidator()
	req := EventRequest{ApartmentID: 1, Description: "Leak", EventDate: "2026-10-18", StatusID: 9}
	assert.False(t, Validate(v, req).HasErrors())

	req.EventDate = "18/10/2026"
	assert.True(t, Validate(v, req).Has("event_date"))
}

func TestValidateApartmentFormNames(t *testing.T) {
	v := NewValidator()
	verr := Validate(v, ApartmentRequest{Code: "A1", BuildingCode: "B1", ApartmentTypeID: 1, Description: "d", StatusID: 1})
	assert.True(t, verr.Has("rent"))
	assert.Len(t, verr.Fields, 1)
}
