package models

import "time"

// Feedback is a student submission linked to the schedule row it refers to.
// Rows are written once after matching and never mutated afterwards.
type Feedback struct {
	ID               string       `db:"id" json:"id"`
	ScheduleID       string       `db:"schedule_id" json:"schedule_id"`
	ScheduleType     ScheduleType `db:"schedule_type" json:"schedule_type"`
	StudentID        string       `db:"student_id" json:"student_id"`
	StudentName      *string      `db:"student_name" json:"student_name,omitempty"`
	StudentEmail     *string      `db:"student_email" json:"student_email,omitempty"`
	LectureDate      string       `db:"lecture_date" json:"lecture_date"`
	Session          Session      `db:"session" json:"session"`
	Subject          string       `db:"subject" json:"subject"`
	Instructor       string       `db:"instructor" json:"instructor"`
	Topic            string       `db:"topic" json:"topic"`
	ContentRating    int          `db:"content_rating" json:"content_rating"`
	InstructorRating int          `db:"instructor_rating" json:"instructor_rating"`
	Comments         *string      `db:"comments" json:"comments,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// FeedbackFilter describes query params for listing feedback.
type FeedbackFilter struct {
	ScheduleType string
	LectureDate  string
	Page         int
	PageSize     int
}
