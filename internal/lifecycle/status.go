package lifecycle

// Category partitions the status catalogue per entity type.
type Category string

const (
	CategoryApartments   Category = "Apartments"
	CategoryAppointments Category = "Appointments"
	CategoryMessages     Category = "Messages"
	CategoryEvents       Category = "Events"
)

// Status identifiers. They are fixed and seeded with the schema.
const (
	ApartmentAvailable   int64 = 1
	ApartmentRented      int64 = 2
	ApartmentUnavailable int64 = 3

	AppointmentPending   int64 = 4
	AppointmentConfirmed int64 = 5
	AppointmentCanceled  int64 = 6

	MessageRead   int64 = 7
	MessageUnread int64 = 8

	EventNew     int64 = 9
	EventPending int64 = 10
	EventSolved  int64 = 11
)

// SeedStatus is a row of the built-in status catalogue.
type SeedStatus struct {
	ID          int64
	Description string
	Category    Category
}

// Catalogue is the full status set in id order.
var Catalogue = []SeedStatus{
	{ApartmentAvailable, "Available", CategoryApartments},
	{ApartmentRented, "Rented", CategoryApartments},
	{ApartmentUnavailable, "Unavailable", CategoryApartments},
	{AppointmentPending, "Pending", CategoryAppointments},
	{AppointmentConfirmed, "Confirmed", CategoryAppointments},
	{AppointmentCanceled, "Canceled", CategoryAppointments},
	{MessageRead, "Read", CategoryMessages},
	{MessageUnread, "Unread", CategoryMessages},
	{EventNew, "New", CategoryEvents},
	{EventPending, "Pending", CategoryEvents},
	{EventSolved, "Solved", CategoryEvents},
}

// CategoryOf returns the category of a catalogue status id.
func CategoryOf(statusID int64) (Category, bool) {
	for _, s := range Catalogue {
		if s.ID == statusID {
			return s.Category, true
		}
	}
	return "", false
}

// DescriptionOf returns the display name of a catalogue status id, or an
// empty string for unknown ids.
func DescriptionOf(statusID int64) string {
	for _, s := range Catalogue {
		if s.ID == statusID {
			return s.Description
		}
	}
	return ""
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryApartments, CategoryAppointments, CategoryMessages, CategoryEvents:
		return c, true
	}
	return "", false
}
