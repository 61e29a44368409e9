package models

import "time"

// InquiryStatus is the closed status set for contact inquiries.
type InquiryStatus string

const (
	InquiryNew        InquiryStatus = "new"
	InquiryInProgress InquiryStatus = "in_progress"
	InquiryResolved   InquiryStatus = "resolved"
)

// Valid reports whether the status is one of the closed set.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryNew, InquiryInProgress, InquiryResolved:
		return true
	}
	return false
}

// SourceContactForm marks inquiries created by the public contact form.
const SourceContactForm = "contact_form"

// Inquiry is a contact-form submission triaged through the admin inbox.
type Inquiry struct {
	ID        string  `db:"id" json:"id"`
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Email     string  `db:"email" json:"email"`
	Phone     *string `db:"phone" json:"phone,omitempty"`
	Company   *string `db:"company" json:"company,omitempty"`
	JobTitle  *string `db:"job_title" json:"job_title,omitempty"`
	Website   *string `db:"website" json:"website,omitempty"`

	InquiryType      string  `db:"inquiry_type" json:"inquiry_type"`
	Purpose          *string `db:"purpose" json:"purpose,omitempty"`
	Priority         string  `db:"priority" json:"priority"`
	PreferredContact *string `db:"preferred_contact" json:"preferred_contact,omitempty"`
	BestTimeToCall   *string `db:"best_time_to_call" json:"best_time_to_call,omitempty"`
	HearAboutUs      *string `db:"hear_about_us" json:"hear_about_us,omitempty"`
	Message          string  `db:"message" json:"message"`

	Newsletter      bool   `db:"newsletter" json:"newsletter"`
	PrivacyAccepted bool   `db:"privacy_accepted" json:"privacy_accepted"`
	Source          string `db:"source" json:"source"`

	Status          InquiryStatus `db:"status" json:"status"`
	StatusUpdatedAt *time.Time    `db:"status_updated_at" json:"status_updated_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}
