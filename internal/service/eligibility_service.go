package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
)

type eligibilityRecordReader interface {
	Exists(ctx context.Context, courseID, userID string) (bool, error)
}

// EligibilityService decides whether a user may attempt self-enrolment into a
// course instance. The check is read-only; it never mutates state.
type EligibilityService struct {
	records eligibilityRecordReader
	logger  *zap.Logger
}

// NewEligibilityService constructs EligibilityService.
func NewEligibilityService(records eligibilityRecordReader, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{records: records, logger: logger}
}

// Check gates a self-enrolment attempt. Blocked and AlreadyEnrolled are
// informational outcomes for the caller, not errors; only a failing record
// lookup surfaces as an error.
func (s *EligibilityService) Check(ctx context.Context, instance *models.EnrolInstance, user *models.User) (*models.Eligibility, error) {
	if !instance.Enabled() {
		return &models.Eligibility{Status: models.EligibilityBlocked, Reason: models.BlockReasonInstanceDisabled}, nil
	}
	if !instance.AcceptingNew {
		return &models.Eligibility{Status: models.EligibilityBlocked, Reason: models.BlockReasonNotAccepting}, nil
	}
	if user.IsGuest() {
		return &models.Eligibility{Status: models.EligibilityBlocked, Reason: models.BlockReasonGuestNotAllowed}, nil
	}

	exists, err := s.records.Exists(ctx, instance.CourseID, user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrolment record")
	}
	if exists {
		return &models.Eligibility{Status: models.EligibilityAlreadyEnrolled}, nil
	}

	return &models.Eligibility{Status: models.EligibilityEligible}, nil
}
