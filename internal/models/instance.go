package models

import "time"

// InstanceStatus represents whether an enrol instance admits new enrolments.
type InstanceStatus string

// Possible instance statuses.
const (
	InstanceStatusEnabled  InstanceStatus = "ENABLED"
	InstanceStatusDisabled InstanceStatus = "DISABLED"
)

// EnrolInstance configures self-enrolment for a single course. An instance
// holds the role granted on enrolment and the validity window applied to it.
type EnrolInstance struct {
	ID           string         `db:"id" json:"id"`
	CourseID     string         `db:"course_id" json:"course_id"`
	Name         string         `db:"name" json:"name"`
	Status       InstanceStatus `db:"status" json:"status"`
	RoleID       string         `db:"role_id" json:"role_id"`
	EnrolPeriod  int64          `db:"enrol_period" json:"enrol_period"`
	AcceptingNew bool           `db:"accepting_new" json:"accepting_new"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Enabled reports whether the instance currently admits new enrolments.
// A disabled instance never admits enrolments regardless of other fields.
func (i *EnrolInstance) Enabled() bool {
	return i != nil && i.Status == InstanceStatusEnabled
}

// InstanceFilter provides filters for listing enrol instances.
type InstanceFilter struct {
	CourseID  string
	Status    InstanceStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
