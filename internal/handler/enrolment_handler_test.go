package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-enrol-api/internal/middleware"
	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/internal/service"
	"github.com/noah-isme/lms-enrol-api/pkg/response"
)

type instanceReaderStub struct {
	instance *models.EnrolInstance
}

func (s *instanceReaderStub) Get(ctx context.Context, id string) (*models.EnrolInstance, error) {
	if s.instance != nil && s.instance.ID == id {
		return s.instance, nil
	}
	return nil, sql.ErrNoRows
}

type recordRepoStub struct {
	existing map[string]bool
}

func (s *recordRepoStub) Insert(ctx context.Context, record *models.EnrolRecord) (bool, error) {
	if s.existing[record.CourseID+":"+record.UserID] {
		return false, nil
	}
	record.ID = "rec-1"
	return true, nil
}

func (s *recordRepoStub) FindByCourseAndUser(ctx context.Context, courseID, userID string) (*models.EnrolRecord, error) {
	return &models.EnrolRecord{ID: "rec-1", CourseID: courseID, UserID: userID}, nil
}

func (s *recordRepoStub) ListByCourse(ctx context.Context, courseID string, page, size int) ([]models.EnrolRecordDetail, int, error) {
	return nil, 0, nil
}

func (s *recordRepoStub) Exists(ctx context.Context, courseID, userID string) (bool, error) {
	return s.existing[courseID+":"+userID], nil
}

type grantWriterStub struct{}

func (s *grantWriterStub) Upsert(ctx context.Context, grant *models.RoleGrant) error {
	return nil
}

func newEnrolmentTestHandler(instance *models.EnrolInstance) *EnrolmentHandler {
	records := &recordRepoStub{existing: map[string]bool{}}
	eligibility := service.NewEligibilityService(records, nil)
	svc := service.NewEnrolmentService(&instanceReaderStub{instance: instance}, eligibility, records, &grantWriterStub{}, nil, nil, service.NewRoleCapabilityChecker(), nil, nil)
	return NewEnrolmentHandler(svc, nil)
}

func testInstance() *models.EnrolInstance {
	return &models.EnrolInstance{
		ID:           "inst-1",
		CourseID:     "course-1",
		Status:       models.InstanceStatusEnabled,
		RoleID:       "student",
		AcceptingNew: true,
	}
}

func performSelfEnrol(t *testing.T, handler *EnrolmentHandler, claims *models.JWTClaims, payload service.SelfEnrolRequest) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, "/enrol/inst-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}

	handler.SelfEnrol(c)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return w, envelope
}

func TestEnrolmentHandlerSelfEnrolCreated(t *testing.T) {
	handler := newEnrolmentTestHandler(testInstance())
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent, FullName: "User One"}

	w, envelope := performSelfEnrol(t, handler, claims, service.SelfEnrolRequest{DisplayName: "User One"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, envelope.Error)
}

func TestEnrolmentHandlerSelfEnrolMissingName(t *testing.T) {
	handler := newEnrolmentTestHandler(testInstance())
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}

	w, _ := performSelfEnrol(t, handler, claims, service.SelfEnrolRequest{DisplayName: "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrolmentHandlerSelfEnrolGuest(t *testing.T) {
	handler := newEnrolmentTestHandler(testInstance())

	// No token at all resolves to a guest identity, which is informational.
	w, envelope := performSelfEnrol(t, handler, nil, service.SelfEnrolRequest{DisplayName: "Guest"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, envelope.Error)
}

func TestEnrolmentHandlerCheckEligibility(t *testing.T) {
	handler := newEnrolmentTestHandler(testInstance())
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrol/inst-1/eligibility", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "inst-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.CheckEligibility(c)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEnrolmentHandlerUnknownInstance(t *testing.T) {
	handler := newEnrolmentTestHandler(testInstance())
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrol/missing/eligibility", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.CheckEligibility(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
