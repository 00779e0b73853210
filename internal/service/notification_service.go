package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/pkg/jobs"
)

const jobTypeEnrolmentRecorded = "enrolment.recorded"

// NotificationService publishes enrolment success events through the
// background job queue. Events are an observability signal only; a failed
// publish never affects the enrolment itself.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its queue.
func NewNotificationService(workers int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("enrolment-notifications", s.handle, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start begins consuming queued events.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// EnrolmentRecorded enqueues a success event for the given record.
func (s *NotificationService) EnrolmentRecorded(record models.EnrolRecord) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeEnrolmentRecorded,
		Payload: record,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue enrolment notification",
			zap.String("course_id", record.CourseID),
			zap.String("user_id", record.UserID),
			zap.Error(err))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	record, ok := job.Payload.(models.EnrolRecord)
	if !ok {
		s.logger.Warn("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	s.logger.Info("user enrolled in course",
		zap.String("course_id", record.CourseID),
		zap.String("user_id", record.UserID),
		zap.String("display_name", record.DisplayName))
	return nil
}
