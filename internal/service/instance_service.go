package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
)

type instanceRepository interface {
	List(ctx context.Context, filter models.InstanceFilter) ([]models.EnrolInstance, int, error)
	FindByID(ctx context.Context, id string) (*models.EnrolInstance, error)
	Create(ctx context.Context, instance *models.EnrolInstance) error
	Update(ctx context.Context, instance *models.EnrolInstance) error
	Delete(ctx context.Context, id string) error
}

// InstanceDefaults seeds new instances the way the admin configured the
// plugin-wide defaults.
type InstanceDefaults struct {
	Status   models.InstanceStatus
	RoleID   string
	CacheTTL time.Duration
}

// CreateInstanceRequest describes instance creation payload.
type CreateInstanceRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=255"`
	RoleID       string `json:"role_id" validate:"omitempty,max=64"`
	Status       string `json:"status" validate:"omitempty,oneof=ENABLED DISABLED"`
	EnrolPeriod  int64  `json:"enrol_period" validate:"min=0"`
	AcceptingNew *bool  `json:"accepting_new"`
}

// UpdateInstanceRequest describes instance update payload.
type UpdateInstanceRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	RoleID       string `json:"role_id" validate:"required,max=64"`
	Status       string `json:"status" validate:"required,oneof=ENABLED DISABLED"`
	EnrolPeriod  int64  `json:"enrol_period" validate:"min=0"`
	AcceptingNew bool   `json:"accepting_new"`
}

// InstanceService manages enrol instance configuration. Mutations require the
// configure capability; reads on the enrolment hot path go through the cache.
type InstanceService struct {
	repo      instanceRepository
	caps      CapabilityChecker
	cache     *CacheService
	defaults  InstanceDefaults
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstanceService constructs InstanceService.
func NewInstanceService(repo instanceRepository, caps CapabilityChecker, cache *CacheService, defaults InstanceDefaults, validate *validator.Validate, logger *zap.Logger) *InstanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.Status == "" {
		defaults.Status = models.InstanceStatusEnabled
	}
	return &InstanceService{repo: repo, caps: caps, cache: cache, defaults: defaults, validator: validate, logger: logger}
}

// List returns instances with pagination metadata.
func (s *InstanceService) List(ctx context.Context, filter models.InstanceFilter) ([]models.EnrolInstance, *models.Pagination, error) {
	instances, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrol instances")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return instances, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an instance, preferring the cache.
func (s *InstanceService) Get(ctx context.Context, id string) (*models.EnrolInstance, error) {
	key := cacheKey(id)
	var cached models.EnrolInstance
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	instance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrol instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrol instance")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, instance, s.defaults.CacheTTL); err != nil {
			s.logger.Warn("failed to cache enrol instance", zap.String("id", id), zap.Error(err))
		}
	}
	return instance, nil
}

// Create adds a new instance, applying configured defaults for omitted fields.
func (s *InstanceService) Create(ctx context.Context, claims *models.JWTClaims, req CreateInstanceRequest) (*models.EnrolInstance, error) {
	if !s.caps.HasCapability(CapabilityConfigureInstances, claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+CapabilityConfigureInstances)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instance payload")
	}

	instance := &models.EnrolInstance{
		CourseID:     req.CourseID,
		Name:         req.Name,
		Status:       s.defaults.Status,
		RoleID:       s.defaults.RoleID,
		EnrolPeriod:  req.EnrolPeriod,
		AcceptingNew: true,
	}
	if req.Status != "" {
		instance.Status = models.InstanceStatus(req.Status)
	}
	if req.RoleID != "" {
		instance.RoleID = req.RoleID
	}
	if req.AcceptingNew != nil {
		instance.AcceptingNew = *req.AcceptingNew
	}

	if err := s.repo.Create(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrol instance")
	}
	return instance, nil
}

// Update modifies an instance and drops its cache entry.
func (s *InstanceService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateInstanceRequest) (*models.EnrolInstance, error) {
	if !s.caps.HasCapability(CapabilityConfigureInstances, claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "missing capability "+CapabilityConfigureInstances)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instance payload")
	}

	instance, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrol instance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrol instance")
	}

	instance.Name = req.Name
	instance.RoleID = req.RoleID
	instance.Status = models.InstanceStatus(req.Status)
	instance.EnrolPeriod = req.EnrolPeriod
	instance.AcceptingNew = req.AcceptingNew

	if err := s.repo.Update(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrol instance")
	}
	s.invalidate(ctx, id)
	return instance, nil
}

// Delete removes an instance and drops its cache entry. Enrolment records and
// grants created through the instance are left untouched.
func (s *InstanceService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if !s.caps.HasCapability(CapabilityConfigureInstances, claims) {
		return appErrors.Clone(appErrors.ErrForbidden, "missing capability "+CapabilityConfigureInstances)
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrol instance not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrol instance")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrol instance")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *InstanceService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("failed to invalidate instance cache", zap.String("id", id), zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "enrol:instance:" + id
}
