package models

import "time"

// AnnouncementAudience restricts who sees an announcement.
type AnnouncementAudience string

const (
	AnnouncementAudienceAll      AnnouncementAudience = "ALL"
	AnnouncementAudienceAdmins   AnnouncementAudience = "ADMINS"
	AnnouncementAudienceStudents AnnouncementAudience = "STUDENTS"
)

// Announcement is a board entry managed by admins.
type Announcement struct {
	ID        string               `db:"id" json:"id"`
	Title     string               `db:"title" json:"title"`
	Body      string               `db:"body" json:"body"`
	Audience  AnnouncementAudience `db:"audience" json:"audience"`
	Pinned    bool                 `db:"pinned" json:"pinned"`
	CreatedBy string               `db:"created_by" json:"created_by"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter captures list filters.
type AnnouncementFilter struct {
	Audience   string
	PinnedOnly bool
	Page       int
	PageSize   int
}
