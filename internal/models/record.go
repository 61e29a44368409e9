package models

// Pagination contains pagination metadata returned in list responses.
// Clamped is set when the requested page was out of range and the nearest
// valid page was served instead.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalCount int  `json:"total_count"`
	TotalPages int  `json:"total_pages"`
	Clamped    bool `json:"clamped,omitempty"`
}
