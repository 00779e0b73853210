package models

import "time"

// RoleGrant is the platform-owned join of (user, course, role, time window)
// created when an enrolment succeeds. A nil TimeEnd means the grant is
// unbounded.
type RoleGrant struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	CourseID  string     `db:"course_id" json:"course_id"`
	RoleID    string     `db:"role_id" json:"role_id"`
	TimeStart time.Time  `db:"time_start" json:"time_start"`
	TimeEnd   *time.Time `db:"time_end" json:"time_end,omitempty"`
}
