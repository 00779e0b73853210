package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

// CertificateRepository reads issued certificates and template elements.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindIssueDetailByID returns an issue joined with the data its elements
// render from: recipient account fields, course name and the course teacher.
func (r *CertificateRepository) FindIssueDetailByID(ctx context.Context, id string) (*models.CertificateIssueDetail, error) {
	const query = `SELECT ci.id, ci.template_name, ci.course_id, ci.user_id, ci.code, ci.issued_at,
        u.full_name AS recipient_name, u.email AS recipient_email,
        c.name AS course_name, t.full_name AS teacher_name
        FROM certificate_issues ci
        LEFT JOIN users u ON u.id = ci.user_id
        LEFT JOIN courses c ON c.id = ci.course_id
        LEFT JOIN users t ON t.id = c.teacher_id
        WHERE ci.id = $1`
	var detail models.CertificateIssueDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListElementsByTemplate returns the template's elements in render order.
func (r *CertificateRepository) ListElementsByTemplate(ctx context.Context, templateName string) ([]models.CertificateElement, error) {
	const query = `SELECT id, template_name, element_type, field, sort_order FROM certificate_elements WHERE template_name = $1 ORDER BY sort_order ASC`
	var elements []models.CertificateElement
	if err := r.db.SelectContext(ctx, &elements, query, templateName); err != nil {
		return nil, fmt.Errorf("list certificate elements: %w", err)
	}
	return elements, nil
}
