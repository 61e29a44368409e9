package models

import "time"

// ResourceStatus is the closed status set for downloadable resources.
type ResourceStatus string

const (
	ResourceDraft     ResourceStatus = "draft"
	ResourcePublished ResourceStatus = "published"
	ResourceArchived  ResourceStatus = "archived"
)

// Valid reports whether the status is one of the closed set.
func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceDraft, ResourcePublished, ResourceArchived:
		return true
	}
	return false
}

// Resource is a guide, template or article surfaced on the public
// resources page and managed through the admin CMS.
type Resource struct {
	ID          string  `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Description *string `db:"description" json:"description,omitempty"`
	Category    string  `db:"category" json:"category"`
	Type        string  `db:"type" json:"type"`
	Community   *string `db:"community" json:"community,omitempty"`
	FileURL     *string `db:"file_url" json:"file_url,omitempty"`
	ExternalURL *string `db:"external_url" json:"external_url,omitempty"`

	Status          ResourceStatus `db:"status" json:"status"`
	StatusUpdatedAt *time.Time     `db:"status_updated_at" json:"status_updated_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
