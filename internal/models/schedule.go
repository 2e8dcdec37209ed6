package models

import (
	"fmt"
	"time"
)

// ScheduleType selects one of the two parallel schedule tables.
type ScheduleType string

const (
	ScheduleTypeLVC  ScheduleType = "lvc"
	ScheduleTypeLVRC ScheduleType = "lvrc"
)

// ParseScheduleType validates a raw type string from the API surface.
func ParseScheduleType(raw string) (ScheduleType, error) {
	switch ScheduleType(raw) {
	case ScheduleTypeLVC, ScheduleTypeLVRC:
		return ScheduleType(raw), nil
	default:
		return "", fmt.Errorf("unknown schedule type %q", raw)
	}
}

// Wall-clock layouts. All schedule timestamps are naive local values,
// no timezone conversion happens anywhere in this service.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Schedule represents one live virtual class (LVC) or revision class (LVRC) session.
type Schedule struct {
	ID             string       `db:"id" json:"id"`
	SubjectID      string       `db:"subject_id" json:"subject_id"`
	SubjectName    string       `db:"subject_name" json:"subject_name"`
	Title          string       `db:"title" json:"title"`
	Description    *string      `db:"description" json:"description,omitempty"`
	ScheduledDate  string       `db:"scheduled_date" json:"scheduled_date"`
	StartTime      string       `db:"start_time" json:"start_time"`
	EndTime        string       `db:"end_time" json:"end_time"`
	InstructorName string       `db:"instructor_name" json:"instructor_name"`
	MeetingLink    *string      `db:"meeting_link" json:"meeting_link,omitempty"`
	Capacity       int          `db:"capacity" json:"capacity"`
	RelatedLVCID   *string      `db:"related_lvc_schedule_id" json:"related_lvc_schedule_id,omitempty"`
	ScheduleType   ScheduleType `db:"-" json:"schedule_type,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// UnknownSubjectName is displayed when a schedule row outlived its subject.
const UnknownSubjectName = "Unknown Subject"

// StartDateTime combines scheduled date and start time into a naive instant.
func (s *Schedule) StartDateTime() (time.Time, error) {
	return CombineDateTime(s.ScheduledDate, s.StartTime)
}

// EndDateTime combines scheduled date and end time into a naive instant.
func (s *Schedule) EndDateTime() (time.Time, error) {
	return CombineDateTime(s.ScheduledDate, s.EndTime)
}

// Duration returns the session length. Negative durations indicate an
// invalid row and are rejected upstream at create time.
func (s *Schedule) Duration() (time.Duration, error) {
	start, err := s.StartDateTime()
	if err != nil {
		return 0, err
	}
	end, err := s.EndDateTime()
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// CombineDateTime parses a calendar date and a clock value into one instant.
func CombineDateTime(date, clock string) (time.Time, error) {
	normalized, err := NormalizeClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+normalized, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule datetime: %w", err)
	}
	return t, nil
}

// NormalizeClock reduces "HH:MM:SS" values coming back from TIME columns
// to the canonical "HH:MM" representation used throughout the service.
func NormalizeClock(clock string) (string, error) {
	if t, err := time.Parse("15:04:05", clock); err == nil {
		return t.Format(TimeLayout), nil
	}
	if t, err := time.Parse(TimeLayout, clock); err == nil {
		return t.Format(TimeLayout), nil
	}
	return "", fmt.Errorf("invalid clock value %q", clock)
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	SubjectID string
	DateFrom  string
	DateTo    string
	SortOrder string
	Page      int
	PageSize  int
}
