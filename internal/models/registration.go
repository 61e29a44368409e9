package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RegistrationStatus is the closed status set for event registrations.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether the status is one of the closed set.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	}
	return false
}

// Personnel is one person attached to a company registration.
type Personnel struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Designation string `json:"designation"`
	IsAttending bool   `json:"isAttending"`
}

// PersonnelList is stored as a JSONB column.
type PersonnelList []Personnel

// Value implements driver.Valuer.
func (p PersonnelList) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal personnel: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (p *PersonnelList) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported personnel column type %T", src)
	}
	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Registration is a company's event registration managed through the admin
// list pages. Optional free-text fields are nullable so an absent value can
// be told apart from an empty one.
type Registration struct {
	ID               string `db:"id" json:"id"`
	RegistrationType string `db:"registration_type" json:"registration_type"`
	Season           string `db:"season" json:"season"`

	CompanyName    string  `db:"company_name" json:"company_name"`
	CompanyEmail   string  `db:"company_email" json:"company_email"`
	CompanyPhone   string  `db:"company_phone" json:"company_phone"`
	CompanyAddress *string `db:"company_address" json:"company_address,omitempty"`
	CompanyType    string  `db:"company_type" json:"company_type"`
	CompanySize    string  `db:"company_size" json:"company_size"`
	Industry       string  `db:"industry" json:"industry"`

	Community    string `db:"community" json:"community"`
	XenLevel     string `db:"xen_level" json:"xen_level"`
	ClientStatus string `db:"client_status" json:"client_status"`
	TicketType   string `db:"ticket_type" json:"ticket_type"`

	PrimaryContactName        string `db:"primary_contact_name" json:"primary_contact_name"`
	PrimaryContactEmail       string `db:"primary_contact_email" json:"primary_contact_email"`
	PrimaryContactPhone       string `db:"primary_contact_phone" json:"primary_contact_phone"`
	PrimaryContactDesignation string `db:"primary_contact_designation" json:"primary_contact_designation"`

	Personnel PersonnelList `db:"personnel" json:"personnel"`

	EventID       *string    `db:"event_id" json:"event_id,omitempty"`
	EventTitle    *string    `db:"event_title" json:"event_title,omitempty"`
	EventDate     *time.Time `db:"event_date" json:"event_date,omitempty"`
	EventLocation *string    `db:"event_location" json:"event_location,omitempty"`

	TotalCost          *float64 `db:"total_cost" json:"total_cost,omitempty"`
	BaseAmount         *float64 `db:"base_amount" json:"base_amount,omitempty"`
	DiscountAmount     *float64 `db:"discount_amount" json:"discount_amount,omitempty"`
	IsFreeRegistration bool     `db:"is_free_registration" json:"is_free_registration"`

	Status           RegistrationStatus `db:"status" json:"status"`
	SpecialRequests  *string            `db:"special_requests" json:"special_requests,omitempty"`
	EmergencyContact *string            `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone   *string            `db:"emergency_phone" json:"emergency_phone,omitempty"`

	RegistrationDate time.Time  `db:"registration_date" json:"registration_date"`
	StatusUpdatedAt  *time.Time `db:"status_updated_at" json:"status_updated_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// AttendingPersonnel returns the subset of personnel marked as attending.
func (r *Registration) AttendingPersonnel() []Personnel {
	attending := make([]Personnel, 0, len(r.Personnel))
	for _, p := range r.Personnel {
		if p.IsAttending {
			attending = append(attending, p)
		}
	}
	return attending
}
