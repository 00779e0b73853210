package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
)

type groupRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
}

// GroupService attaches newly enrolled users to a course group.
type GroupService struct {
	repo   groupRepository
	logger *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(repo groupRepository, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, logger: logger}
}

// Assign adds the user to the course's first group by ascending group id.
// The policy is single-group: only the smallest-id group receives the member.
// A course without groups yields NoGroups, which is not an error.
func (s *GroupService) Assign(ctx context.Context, instance *models.EnrolInstance, userID string) (*models.GroupAssignment, error) {
	groups, err := s.repo.ListByCourse(ctx, instance.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalFailure.Code, appErrors.ErrExternalFailure.Status, "failed to list course groups")
	}
	if len(groups) == 0 {
		return &models.GroupAssignment{Status: models.GroupNoGroups}, nil
	}

	target := groups[0]
	if err := s.repo.AddMember(ctx, target.ID, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExternalFailure.Code, appErrors.ErrExternalFailure.Status, "failed to add group member")
	}

	s.logger.Info("user assigned to group",
		zap.String("course_id", instance.CourseID),
		zap.String("group_id", target.ID),
		zap.String("user_id", userID))

	return &models.GroupAssignment{Status: models.GroupAssigned, GroupID: target.ID}, nil
}
