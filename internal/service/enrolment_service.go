package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
)

type enrolRecordRepository interface {
	Insert(ctx context.Context, record *models.EnrolRecord) (bool, error)
	FindByCourseAndUser(ctx context.Context, courseID, userID string) (*models.EnrolRecord, error)
	ListByCourse(ctx context.Context, courseID string, page, size int) ([]models.EnrolRecordDetail, int, error)
}

type roleGrantWriter interface {
	Upsert(ctx context.Context, grant *models.RoleGrant) error
}

type eligibilityChecker interface {
	Check(ctx context.Context, instance *models.EnrolInstance, user *models.User) (*models.Eligibility, error)
}

type groupAssigner interface {
	Assign(ctx context.Context, instance *models.EnrolInstance, userID string) (*models.GroupAssignment, error)
}

type instanceReader interface {
	Get(ctx context.Context, id string) (*models.EnrolInstance, error)
}

type enrolmentNotifier interface {
	EnrolmentRecorded(record models.EnrolRecord)
}

// SelfEnrolRequest is the payload a user submits when joining a course.
type SelfEnrolRequest struct {
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

// EnrolmentService orchestrates the gated self-enrolment workflow: the
// eligibility gate, the role grant, the one-per-(course,user) record and the
// best-effort group follow-up.
type EnrolmentService struct {
	instances   instanceReader
	eligibility eligibilityChecker
	records     enrolRecordRepository
	grants      roleGrantWriter
	groups      groupAssigner
	notifier    enrolmentNotifier
	caps        CapabilityChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrolmentService constructs EnrolmentService. The groups assigner may be
// nil when group assignment is disabled by configuration.
func NewEnrolmentService(instances instanceReader, eligibility eligibilityChecker, records enrolRecordRepository, grants roleGrantWriter, groups groupAssigner, notifier enrolmentNotifier, caps CapabilityChecker, validate *validator.Validate, logger *zap.Logger) *EnrolmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrolmentService{
		instances:   instances,
		eligibility: eligibility,
		records:     records,
		grants:      grants,
		groups:      groups,
		notifier:    notifier,
		caps:        caps,
		validator:   validate,
		logger:      logger,
	}
}

// CheckEligibility resolves the instance and runs the admission gate without
// side effects.
func (s *EnrolmentService) CheckEligibility(ctx context.Context, instanceID string, user *models.User) (*models.Eligibility, error) {
	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	return s.eligibility.Check(ctx, instance, user)
}

// SelfEnrol performs one enrolment attempt: gate, then record, then group
// follow-up. Blocked and AlreadyEnrolled come back as informational outcomes;
// a failing role grant aborts the attempt with no record written.
func (s *EnrolmentService) SelfEnrol(ctx context.Context, instanceID string, user *models.User, req SelfEnrolRequest) (*models.EnrolmentOutcome, error) {
	instance, err := s.loadInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.eligibility.Check(ctx, instance, user)
	if err != nil {
		return nil, err
	}
	switch eligibility.Status {
	case models.EligibilityBlocked:
		return &models.EnrolmentOutcome{Status: models.EnrolmentBlocked, Reason: eligibility.Reason}, nil
	case models.EligibilityAlreadyEnrolled:
		return s.alreadyEnrolled(ctx, instance, user), nil
	}

	return s.record(ctx, instance, user, req)
}

// record is the committing half of the workflow. The eligibility gate and
// this insert are not atomically fused; the unique record key closes the gap.
func (s *EnrolmentService) record(ctx context.Context, instance *models.EnrolInstance, user *models.User, req SelfEnrolRequest) (*models.EnrolmentOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrolment payload")
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return &models.EnrolmentOutcome{Status: models.EnrolmentRejected, Reason: models.RejectReasonMissingName}, nil
	}

	timeStart := time.Now().UTC()
	var timeEnd *time.Time
	if instance.EnrolPeriod > 0 {
		end := timeStart.Add(time.Duration(instance.EnrolPeriod) * time.Second)
		timeEnd = &end
	}

	grant := &models.RoleGrant{
		UserID:    user.ID,
		CourseID:  instance.CourseID,
		RoleID:    instance.RoleID,
		TimeStart: timeStart,
		TimeEnd:   timeEnd,
	}
	if err := s.grants.Upsert(ctx, grant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalFailure.Code, appErrors.ErrExternalFailure.Status, "role grant failed")
	}

	record := &models.EnrolRecord{
		CourseID:    instance.CourseID,
		UserID:      user.ID,
		DisplayName: displayName,
		CreatedAt:   timeStart,
	}
	inserted, err := s.records.Insert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store enrolment record")
	}
	if !inserted {
		// Lost the race against a concurrent duplicate submission.
		return s.alreadyEnrolled(ctx, instance, user), nil
	}

	if s.notifier != nil {
		s.notifier.EnrolmentRecorded(*record)
	}

	outcome := &models.EnrolmentOutcome{Status: models.EnrolmentEnrolled, Record: record, Grant: grant}
	outcome.Group = s.assignGroup(ctx, instance, user.ID)
	return outcome, nil
}

// assignGroup runs the best-effort follow-up. Failures degrade the outcome
// but never roll back the committed enrolment.
func (s *EnrolmentService) assignGroup(ctx context.Context, instance *models.EnrolInstance, userID string) *models.GroupAssignment {
	if s.groups == nil {
		return nil
	}
	assignment, err := s.groups.Assign(ctx, instance, userID)
	if err != nil {
		s.logger.Warn("group assignment failed after enrolment",
			zap.String("course_id", instance.CourseID),
			zap.String("user_id", userID),
			zap.Error(err))
		return &models.GroupAssignment{Status: models.GroupAssignmentFailed}
	}
	return assignment
}

// ListRecords returns a course's enrolment records for callers holding the
// view capability.
func (s *EnrolmentService) ListRecords(ctx context.Context, claims *models.JWTClaims, courseID string, page, size int) ([]models.EnrolRecordDetail, *models.Pagination, error) {
	if s.caps != nil && !s.caps.HasCapability(CapabilityViewRecords, claims) {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+CapabilityViewRecords)
	}
	records, total, err := s.records.ListByCourse(ctx, courseID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolment records")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *EnrolmentService) loadInstance(ctx context.Context, instanceID string) (*models.EnrolInstance, error) {
	instance, err := s.instances.Get(ctx, instanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrol instance not found")
		}
		return nil, err
	}
	return instance, nil
}

func (s *EnrolmentService) alreadyEnrolled(ctx context.Context, instance *models.EnrolInstance, user *models.User) *models.EnrolmentOutcome {
	outcome := &models.EnrolmentOutcome{Status: models.EnrolmentAlreadyEnrolled}
	record, err := s.records.FindByCourseAndUser(ctx, instance.CourseID, user.ID)
	if err == nil {
		outcome.Record = record
	}
	return outcome
}
