package models

import "time"

// CertificateElementType discriminates the polymorphic certificate elements.
type CertificateElementType string

// Supported element types.
const (
	ElementTeacherName CertificateElementType = "teachersname"
	ElementUserField   CertificateElementType = "userfield"
)

// CertificateElement is one placeholder on a certificate template. Field is
// only meaningful for userfield elements.
type CertificateElement struct {
	ID           string                 `db:"id" json:"id"`
	TemplateName string                 `db:"template_name" json:"template_name"`
	Type         CertificateElementType `db:"element_type" json:"element_type"`
	Field        string                 `db:"field" json:"field,omitempty"`
	SortOrder    int                    `db:"sort_order" json:"sort_order"`
}

// CertificateIssue records a certificate issued to a user for a course.
type CertificateIssue struct {
	ID           string    `db:"id" json:"id"`
	TemplateName string    `db:"template_name" json:"template_name"`
	CourseID     string    `db:"course_id" json:"course_id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Code         string    `db:"code" json:"code"`
	IssuedAt     time.Time `db:"issued_at" json:"issued_at"`
}

// CertificateIssueDetail enriches an issue with the data elements render from.
type CertificateIssueDetail struct {
	CertificateIssue
	RecipientName  string `db:"recipient_name" json:"recipient_name"`
	RecipientEmail string `db:"recipient_email" json:"recipient_email"`
	CourseName     string `db:"course_name" json:"course_name"`
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
}
