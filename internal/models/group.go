package models

import "time"

// Group is a named subset of enrolled users within a course.
type Group struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupMember records a user's membership in a group.
type GroupMember struct {
	GroupID string    `db:"group_id" json:"group_id"`
	UserID  string    `db:"user_id" json:"user_id"`
	AddedAt time.Time `db:"added_at" json:"added_at"`
}
