package models

import "time"

// BookingStatus is the closed status set for service bookings.
type BookingStatus string

const (
	BookingPendingConfirmation BookingStatus = "pending_confirmation"
	BookingConfirmed           BookingStatus = "confirmed"
	BookingCompleted           BookingStatus = "completed"
	BookingCancelled           BookingStatus = "cancelled"
)

// Valid reports whether the status is one of the closed set.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPendingConfirmation, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Booking is a consultation or service booking submitted through the site.
type Booking struct {
	ID           string        `db:"id" json:"id"`
	ServiceType  string        `db:"service_type" json:"service_type"`
	CompanyName  string        `db:"company_name" json:"company_name"`
	ContactName  string        `db:"contact_name" json:"contact_name"`
	ContactEmail string        `db:"contact_email" json:"contact_email"`
	ContactPhone *string       `db:"contact_phone" json:"contact_phone,omitempty"`
	Purpose      *string       `db:"purpose" json:"purpose,omitempty"`
	ScheduledFor *time.Time    `db:"scheduled_for" json:"scheduled_for,omitempty"`
	Status       BookingStatus `db:"status" json:"status"`
	ConfirmedBy  *string       `db:"confirmed_by" json:"confirmed_by,omitempty"`

	StatusUpdatedAt *time.Time `db:"status_updated_at" json:"status_updated_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
