package models

// EligibilityStatus is the result of the admission check before enrolment.
type EligibilityStatus string

// Possible eligibility statuses.
const (
	EligibilityEligible        EligibilityStatus = "ELIGIBLE"
	EligibilityBlocked         EligibilityStatus = "BLOCKED"
	EligibilityAlreadyEnrolled EligibilityStatus = "ALREADY_ENROLLED"
)

// Block reasons returned with EligibilityBlocked.
const (
	BlockReasonInstanceDisabled = "instance-disabled"
	BlockReasonNotAccepting     = "not-accepting"
	BlockReasonGuestNotAllowed  = "guest-not-allowed"
)

// Eligibility is the outcome of the read-only admission check.
type Eligibility struct {
	Status EligibilityStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

// EnrolmentStatus is the result of a self-enrolment attempt.
type EnrolmentStatus string

// Possible enrolment statuses.
const (
	EnrolmentEnrolled        EnrolmentStatus = "ENROLLED"
	EnrolmentAlreadyEnrolled EnrolmentStatus = "ALREADY_ENROLLED"
	EnrolmentBlocked         EnrolmentStatus = "BLOCKED"
	EnrolmentRejected        EnrolmentStatus = "REJECTED"
)

// RejectReasonMissingName flags an empty display name after trimming.
const RejectReasonMissingName = "missing-name"

// GroupAssignmentStatus describes the best-effort group follow-up.
type GroupAssignmentStatus string

// Possible group assignment statuses.
const (
	GroupAssigned         GroupAssignmentStatus = "ASSIGNED"
	GroupNoGroups         GroupAssignmentStatus = "NO_GROUPS"
	GroupAssignmentFailed GroupAssignmentStatus = "FAILED"
)

// GroupAssignment reports the group side effect of an enrolment.
type GroupAssignment struct {
	Status  GroupAssignmentStatus `json:"status"`
	GroupID string                `json:"group_id,omitempty"`
}

// EnrolmentOutcome is returned from a self-enrolment attempt. Blocked and
// AlreadyEnrolled are informational, not failures; Rejected carries the
// validation reason back to the submitting caller.
type EnrolmentOutcome struct {
	Status EnrolmentStatus  `json:"status"`
	Reason string           `json:"reason,omitempty"`
	Record *EnrolRecord     `json:"record,omitempty"`
	Grant  *RoleGrant       `json:"grant,omitempty"`
	Group  *GroupAssignment `json:"group,omitempty"`
}
