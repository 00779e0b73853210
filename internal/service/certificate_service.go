package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/pkg/certpdf"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
)

type certificateRepository interface {
	FindIssueDetailByID(ctx context.Context, id string) (*models.CertificateIssueDetail, error)
	ListElementsByTemplate(ctx context.Context, templateName string) ([]models.CertificateElement, error)
}

// CertificateService renders certificate elements for issued certificates.
type CertificateService struct {
	repo     certificateRepository
	renderer *certpdf.Renderer
	issuer   string
	logger   *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(repo certificateRepository, renderer *certpdf.Renderer, issuer string, logger *zap.Logger) *CertificateService {
	if renderer == nil {
		renderer = certpdf.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{repo: repo, renderer: renderer, issuer: issuer, logger: logger}
}

// RenderValue resolves one element against the issue data.
func (s *CertificateService) RenderValue(element models.CertificateElement, issue *models.CertificateIssueDetail) (string, error) {
	switch element.Type {
	case models.ElementTeacherName:
		return issue.TeacherName, nil
	case models.ElementUserField:
		return renderUserField(element.Field, issue)
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown certificate element type %q", element.Type))
	}
}

// RenderValues resolves the whole template for an issue, in element order.
func (s *CertificateService) RenderValues(ctx context.Context, issueID string) ([]string, *models.CertificateIssueDetail, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, nil, err
	}

	elements, err := s.repo.ListElementsByTemplate(ctx, issue.TemplateName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate elements")
	}

	values := make([]string, 0, len(elements))
	for _, element := range elements {
		value, err := s.RenderValue(element, issue)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, value)
	}
	return values, issue, nil
}

// RenderPDF produces the certificate document for an issue.
func (s *CertificateService) RenderPDF(ctx context.Context, issueID string) ([]byte, error) {
	values, issue, err := s.RenderValues(ctx, issueID)
	if err != nil {
		return nil, err
	}

	doc := certpdf.Document{
		Title:    issue.CourseName,
		Issuer:   s.issuer,
		Lines:    values,
		Code:     issue.Code,
		IssuedOn: issue.IssuedAt.Format("2 January 2006"),
	}
	pdf, err := s.renderer.Render(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return pdf, nil
}

func (s *CertificateService) loadIssue(ctx context.Context, issueID string) (*models.CertificateIssueDetail, error) {
	issue, err := s.repo.FindIssueDetailByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate issue")
	}
	return issue, nil
}

func renderUserField(field string, issue *models.CertificateIssueDetail) (string, error) {
	switch field {
	case "fullname", "":
		return issue.RecipientName, nil
	case "email":
		return issue.RecipientEmail, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown user field %q", field))
	}
}
