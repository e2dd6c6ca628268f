package lifecycle

import (
	"fmt"
	"time"

	"github.com/rongwang/property-rental-server/internal/apperrors"
)

// appointmentTransitions lists the allowed (from -> to) moves.
var appointmentTransitions = map[int64][]int64{
	AppointmentPending: {AppointmentConfirmed, AppointmentCanceled},
}

// TransitionAppointment validates moving an appointment from current to
// target and returns the new status.
func TransitionAppointment(current, target int64) (int64, error) {
	for _, next := range appointmentTransitions[current] {
		if next == target {
			return target, nil
		}
	}
	return current, fmt.Errorf("appointment status %d -> %d: %w", current, target, apperrors.ErrInvalidTransition)
}

// MarkRead applies the Unread -> Read transition for a message viewed by
// viewerID. Only the receiver triggers it; Read stays Read. The second
// return value reports whether the status changed and must be persisted.
func MarkRead(current, viewerID, receiverID int64) (int64, bool) {
	if viewerID <= 0 || viewerID != receiverID {
		return current, false
	}
	if current != MessageUnread {
		return current, false
	}
	return MessageRead, true
}

// CheckCategory reports whether statusID belongs to want. It returns a
// field-level validation error on status_id otherwise.
func CheckCategory(statusID int64, actual Category, want Category) error {
	if actual != want {
		return apperrors.Field("status_id",
			fmt.Sprintf("Status %d is not a valid %s status.", statusID, want), "validation_category")
	}
	return nil
}

// ValidateAppointmentTime enforces the booking date rule relative to now:
// a date-time on today's calendar date must be strictly later than now,
// a later calendar date is accepted at any time of day and earlier dates
// are rejected.
func ValidateAppointmentTime(at, now time.Time) error {
	local := at.In(now.Location())
	today := dateOf(now)
	day := dateOf(local)

	switch {
	case day.After(today):
		return nil
	case day.Equal(today) && local.After(now):
		return nil
	}
	return apperrors.Field("appointment_datetime",
		"Appointment Date Time must be not today or older.", "validation_future")
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
