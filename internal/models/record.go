package models

import "time"

// EnrolRecord captures the display name a user supplied when self-enrolling.
// Exactly one record exists per (course_id, user_id) pair; records are never
// updated or deleted by the enrolment workflow.
type EnrolRecord struct {
	ID          string    `db:"id" json:"id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EnrolRecordDetail enriches EnrolRecord with user account info for listings.
type EnrolRecordDetail struct {
	EnrolRecord
	UserEmail    string `db:"user_email" json:"user_email"`
	UserFullName string `db:"user_full_name" json:"user_full_name"`
}
