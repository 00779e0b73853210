package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-enrol-api/internal/models"
)

type mockRecordRepo struct {
	mu       sync.Mutex
	records  map[string]models.EnrolRecord
	insertEr error
	inserts  int
}

func (m *mockRecordRepo) Insert(ctx context.Context, record *models.EnrolRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertEr != nil {
		return false, m.insertEr
	}
	if m.records == nil {
		m.records = make(map[string]models.EnrolRecord)
	}
	key := record.CourseID + ":" + record.UserID
	if _, ok := m.records[key]; ok {
		return false, nil
	}
	m.records[key] = *record
	m.inserts++
	return true, nil
}

func (m *mockRecordRepo) FindByCourseAndUser(ctx context.Context, courseID, userID string) (*models.EnrolRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[courseID+":"+userID]; ok {
		return &record, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRecordRepo) ListByCourse(ctx context.Context, courseID string, page, size int) ([]models.EnrolRecordDetail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var details []models.EnrolRecordDetail
	for _, record := range m.records {
		if record.CourseID == courseID {
			details = append(details, models.EnrolRecordDetail{EnrolRecord: record})
		}
	}
	return details, len(details), nil
}

type mockGrantWriter struct {
	mu     sync.Mutex
	grants []models.RoleGrant
	err    error
}

func (m *mockGrantWriter) Upsert(ctx context.Context, grant *models.RoleGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.grants = append(m.grants, *grant)
	return nil
}

type mockInstanceReader struct {
	instances map[string]*models.EnrolInstance
}

func (m *mockInstanceReader) Get(ctx context.Context, id string) (*models.EnrolInstance, error) {
	if instance, ok := m.instances[id]; ok {
		return instance, nil
	}
	return nil, sql.ErrNoRows
}

type mockGroupAssigner struct {
	assignment *models.GroupAssignment
	err        error
	calls      int
}

func (m *mockGroupAssigner) Assign(ctx context.Context, instance *models.EnrolInstance, userID string) (*models.GroupAssignment, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.assignment, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	recorded []models.EnrolRecord
}

func (m *mockNotifier) EnrolmentRecorded(record models.EnrolRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, record)
}

type enrolmentFixture struct {
	instances *mockInstanceReader
	records   *mockRecordRepo
	grants    *mockGrantWriter
	groups    *mockGroupAssigner
	notifier  *mockNotifier
	svc       *EnrolmentService
}

func newEnrolmentFixture(instance *models.EnrolInstance) *enrolmentFixture {
	f := &enrolmentFixture{
		instances: &mockInstanceReader{instances: map[string]*models.EnrolInstance{instance.ID: instance}},
		records:   &mockRecordRepo{},
		grants:    &mockGrantWriter{},
		groups:    &mockGroupAssigner{assignment: &models.GroupAssignment{Status: models.GroupAssigned, GroupID: "g1"}},
		notifier:  &mockNotifier{},
	}
	eligibility := NewEligibilityService(f.records.asReader(), zap.NewNop())
	f.svc = NewEnrolmentService(f.instances, eligibility, f.records, f.grants, f.groups, f.notifier, NewRoleCapabilityChecker(), validator.New(), zap.NewNop())
	return f
}

// asReader adapts the record mock so the eligibility gate sees the same state
// as the committing insert.
func (m *mockRecordRepo) asReader() *recordExistsAdapter {
	return &recordExistsAdapter{repo: m}
}

type recordExistsAdapter struct {
	repo *mockRecordRepo
}

func (a *recordExistsAdapter) Exists(ctx context.Context, courseID, userID string) (bool, error) {
	a.repo.mu.Lock()
	defer a.repo.mu.Unlock()
	_, ok := a.repo.records[courseID+":"+userID]
	return ok, nil
}

func student() *models.User {
	return &models.User{ID: "u1", Email: "u1@example.com", FullName: "User One", Role: models.RoleStudent}
}

func TestSelfEnrolSuccess(t *testing.T) {
	instance := enabledInstance()
	instance.EnrolPeriod = 3600
	f := newEnrolmentFixture(instance)

	before := time.Now().UTC()
	outcome, err := f.svc.SelfEnrol(context.Background(), instance.ID, student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)

	assert.Equal(t, models.EnrolmentEnrolled, outcome.Status)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "User One", outcome.Record.DisplayName)
	assert.Equal(t, "course-1", outcome.Record.CourseID)

	require.Len(t, f.grants.grants, 1)
	grant := f.grants.grants[0]
	assert.Equal(t, "student", grant.RoleID)
	assert.False(t, grant.TimeStart.Before(before))
	require.NotNil(t, grant.TimeEnd)
	assert.Equal(t, grant.TimeStart.Add(time.Hour), *grant.TimeEnd)

	require.NotNil(t, outcome.Group)
	assert.Equal(t, models.GroupAssigned, outcome.Group.Status)
	assert.Len(t, f.notifier.recorded, 1)
}

func TestSelfEnrolUnboundedPeriod(t *testing.T) {
	instance := enabledInstance()
	instance.EnrolPeriod = 0
	f := newEnrolmentFixture(instance)

	outcome, err := f.svc.SelfEnrol(context.Background(), instance.ID, student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrolmentEnrolled, outcome.Status)

	require.Len(t, f.grants.grants, 1)
	assert.Nil(t, f.grants.grants[0].TimeEnd)
}

func TestSelfEnrolMissingNameRejected(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	outcome, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "   "})
	require.NoError(t, err)
	assert.Equal(t, models.EnrolmentRejected, outcome.Status)
	assert.Equal(t, models.RejectReasonMissingName, outcome.Reason)

	// Nothing was committed.
	assert.Empty(t, f.grants.grants)
	assert.Zero(t, f.records.inserts)
	assert.Empty(t, f.notifier.recorded)
}

func TestSelfEnrolTrimsDisplayName(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	outcome, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "  User One  "})
	require.NoError(t, err)
	require.NotNil(t, outcome.Record)
	assert.Equal(t, "User One", outcome.Record.DisplayName)
}

func TestSelfEnrolGuestBlocked(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	outcome, err := f.svc.SelfEnrol(context.Background(), "inst-1", &models.User{Role: models.RoleGuest}, SelfEnrolRequest{DisplayName: "Guest"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrolmentBlocked, outcome.Status)
	assert.Equal(t, models.BlockReasonGuestNotAllowed, outcome.Reason)
	assert.Zero(t, f.records.inserts)
}

func TestSelfEnrolIdempotent(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	first, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)
	require.Equal(t, models.EnrolmentEnrolled, first.Status)

	second, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrolmentAlreadyEnrolled, second.Status)
	require.NotNil(t, second.Record)
	assert.Equal(t, first.Record.ID, second.Record.ID)

	assert.Equal(t, 1, f.records.inserts)
	assert.Len(t, f.notifier.recorded, 1)
}

func TestSelfEnrolGrantFailureAbortsAttempt(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())
	f.grants.err = errors.New("enrolment backend down")

	_, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "User One"})
	require.Error(t, err)

	// No record means a retry can succeed cleanly.
	assert.Zero(t, f.records.inserts)
	assert.Empty(t, f.notifier.recorded)
	assert.Zero(t, f.groups.calls)
}

func TestSelfEnrolGroupFailureDegradesOutcome(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())
	f.groups.err = errors.New("group store unavailable")

	outcome, err := f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)

	assert.Equal(t, models.EnrolmentEnrolled, outcome.Status)
	require.NotNil(t, outcome.Group)
	assert.Equal(t, models.GroupAssignmentFailed, outcome.Group.Status)

	// The enrolment itself stays committed.
	assert.Equal(t, 1, f.records.inserts)
	assert.Len(t, f.grants.grants, 1)
}

func TestSelfEnrolWithoutGroupAssigner(t *testing.T) {
	instance := enabledInstance()
	f := newEnrolmentFixture(instance)
	eligibility := NewEligibilityService(f.records.asReader(), zap.NewNop())
	svc := NewEnrolmentService(f.instances, eligibility, f.records, f.grants, nil, f.notifier, NewRoleCapabilityChecker(), validator.New(), zap.NewNop())

	outcome, err := svc.SelfEnrol(context.Background(), instance.ID, student(), SelfEnrolRequest{DisplayName: "User One"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrolmentEnrolled, outcome.Status)
	assert.Nil(t, outcome.Group)
}

func TestSelfEnrolUnknownInstance(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	_, err := f.svc.SelfEnrol(context.Background(), "missing", student(), SelfEnrolRequest{DisplayName: "User One"})
	require.Error(t, err)
}

func TestSelfEnrolConcurrentDuplicates(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	const attempts = 16
	outcomes := make([]*models.EnrolmentOutcome, attempts)
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = f.svc.SelfEnrol(context.Background(), "inst-1", student(), SelfEnrolRequest{DisplayName: "User One"})
		}(i)
	}
	wg.Wait()

	enrolled := 0
	for i, outcome := range outcomes {
		require.NoError(t, errs[i])
		switch outcome.Status {
		case models.EnrolmentEnrolled:
			enrolled++
		case models.EnrolmentAlreadyEnrolled:
		default:
			t.Fatalf("unexpected outcome %s", outcome.Status)
		}
	}
	assert.Equal(t, 1, enrolled)
	assert.Equal(t, 1, f.records.inserts)
}

func TestCheckEligibilityPassesThrough(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	eligibility, err := f.svc.CheckEligibility(context.Background(), "inst-1", student())
	require.NoError(t, err)
	assert.Equal(t, models.EligibilityEligible, eligibility.Status)

	// A dry-run check never writes anything.
	assert.Zero(t, f.records.inserts)
	assert.Empty(t, f.grants.grants)
}

func TestListRecordsRequiresCapability(t *testing.T) {
	f := newEnrolmentFixture(enabledInstance())

	_, _, err := f.svc.ListRecords(context.Background(), &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "course-1", 1, 20)
	require.Error(t, err)

	records, pagination, err := f.svc.ListRecords(context.Background(), &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher}, "course-1", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, records)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
}
