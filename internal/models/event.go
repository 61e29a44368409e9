package models

import "time"

// Event is a community event shown on the public events page and linked
// from registrations.
type Event struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Location    string     `db:"location" json:"location"`
	Community   *string    `db:"community" json:"community,omitempty"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`
	Capacity    *int       `db:"capacity" json:"capacity,omitempty"`
	Published   bool       `db:"published" json:"published"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Upcoming reports whether the event starts after the given time.
func (e *Event) Upcoming(now time.Time) bool {
	return e.StartsAt.After(now)
}
