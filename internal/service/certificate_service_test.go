package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

type mockCertificateRepo struct {
	issues   map[string]*models.CertificateIssueDetail
	elements map[string][]models.CertificateElement
}

func (m *mockCertificateRepo) FindIssueDetailByID(ctx context.Context, id string) (*models.CertificateIssueDetail, error) {
	if issue, ok := m.issues[id]; ok {
		return issue, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCertificateRepo) ListElementsByTemplate(ctx context.Context, templateName string) ([]models.CertificateElement, error) {
	return m.elements[templateName], nil
}

func sampleIssue() *models.CertificateIssueDetail {
	return &models.CertificateIssueDetail{
		CertificateIssue: models.CertificateIssue{
			ID:           "issue-1",
			TemplateName: "completion",
			CourseID:     "course-1",
			UserID:       "u1",
			Code:         "CERT-001",
			IssuedAt:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		RecipientName:  "User One",
		RecipientEmail: "u1@example.com",
		CourseName:     "Algebra",
		TeacherName:    "Prof. Ada",
	}
}

func newCertificateService(repo *mockCertificateRepo) *CertificateService {
	return NewCertificateService(repo, nil, "Example Academy", zap.NewNop())
}

func TestRenderValueTeacherName(t *testing.T) {
	svc := newCertificateService(&mockCertificateRepo{})

	value, err := svc.RenderValue(models.CertificateElement{Type: models.ElementTeacherName}, sampleIssue())
	require.NoError(t, err)
	assert.Equal(t, "Prof. Ada", value)
}

func TestRenderValueUserFields(t *testing.T) {
	svc := newCertificateService(&mockCertificateRepo{})
	issue := sampleIssue()

	value, err := svc.RenderValue(models.CertificateElement{Type: models.ElementUserField, Field: "fullname"}, issue)
	require.NoError(t, err)
	assert.Equal(t, "User One", value)

	value, err = svc.RenderValue(models.CertificateElement{Type: models.ElementUserField, Field: "email"}, issue)
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", value)

	// An unset field defaults to the full name.
	value, err = svc.RenderValue(models.CertificateElement{Type: models.ElementUserField}, issue)
	require.NoError(t, err)
	assert.Equal(t, "User One", value)
}

func TestRenderValueUnknownType(t *testing.T) {
	svc := newCertificateService(&mockCertificateRepo{})

	_, err := svc.RenderValue(models.CertificateElement{Type: "qrcode"}, sampleIssue())
	require.Error(t, err)
}

func TestRenderValueUnknownUserField(t *testing.T) {
	svc := newCertificateService(&mockCertificateRepo{})

	_, err := svc.RenderValue(models.CertificateElement{Type: models.ElementUserField, Field: "phone"}, sampleIssue())
	require.Error(t, err)
}

func TestRenderValuesInTemplateOrder(t *testing.T) {
	repo := &mockCertificateRepo{
		issues: map[string]*models.CertificateIssueDetail{"issue-1": sampleIssue()},
		elements: map[string][]models.CertificateElement{"completion": {
			{Type: models.ElementUserField, Field: "fullname", SortOrder: 1},
			{Type: models.ElementTeacherName, SortOrder: 2},
			{Type: models.ElementUserField, Field: "email", SortOrder: 3},
		}},
	}
	svc := newCertificateService(repo)

	values, issue, err := svc.RenderValues(context.Background(), "issue-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"User One", "Prof. Ada", "u1@example.com"}, values)
	assert.Equal(t, "CERT-001", issue.Code)
}

func TestRenderValuesUnknownIssue(t *testing.T) {
	svc := newCertificateService(&mockCertificateRepo{})

	_, _, err := svc.RenderValues(context.Background(), "missing")
	require.Error(t, err)
}

func TestRenderPDF(t *testing.T) {
	repo := &mockCertificateRepo{
		issues: map[string]*models.CertificateIssueDetail{"issue-1": sampleIssue()},
		elements: map[string][]models.CertificateElement{"completion": {
			{Type: models.ElementUserField, Field: "fullname", SortOrder: 1},
			{Type: models.ElementTeacherName, SortOrder: 2},
		}},
	}
	svc := newCertificateService(repo)

	pdf, err := svc.RenderPDF(context.Background(), "issue-1")
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
