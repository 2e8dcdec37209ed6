package models

import "time"

// Subject represents one entry in the course catalog.
type Subject struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     *string   `db:"description" json:"description,omitempty"`
	CoverImageURL   *string   `db:"cover_image_url" json:"cover_image_url,omitempty"`
	AssignedAdminID *string   `db:"assigned_admin_id" json:"assigned_admin_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search          string
	AssignedAdminID string
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
