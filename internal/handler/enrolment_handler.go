package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/internal/service"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
	"github.com/noah-isme/lms-enrol-api/pkg/response"
)

// EnrolmentHandler exposes the self-enrolment endpoints.
type EnrolmentHandler struct {
	service *service.EnrolmentService
	metrics *service.MetricsService
}

// NewEnrolmentHandler creates a new handler.
func NewEnrolmentHandler(svc *service.EnrolmentService, metrics *service.MetricsService) *EnrolmentHandler {
	return &EnrolmentHandler{service: svc, metrics: metrics}
}

// CheckEligibility godoc
// @Summary Check enrolment eligibility
// @Description Runs the admission gate for the caller without enrolling
// @Tags Enrolment
// @Produce json
// @Param id path string true "Enrol instance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrol/{id}/eligibility [get]
func (h *EnrolmentHandler) CheckEligibility(c *gin.Context) {
	user := currentUser(c)

	eligibility, err := h.service.CheckEligibility(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, eligibility, nil)
}

// SelfEnrol godoc
// @Summary Self-enrol into a course
// @Description Enrols the caller through the given instance
// @Tags Enrolment
// @Accept json
// @Produce json
// @Param id path string true "Enrol instance ID"
// @Param payload body service.SelfEnrolRequest true "Enrolment payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrol/{id} [post]
func (h *EnrolmentHandler) SelfEnrol(c *gin.Context) {
	user := currentUser(c)

	var req service.SelfEnrolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrolment payload"))
		return
	}

	outcome, err := h.service.SelfEnrol(c.Request.Context(), c.Param("id"), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.ObserveEnrolment(string(outcome.Status))

	response.JSON(c, outcomeStatusCode(outcome), outcome, nil)
}

// ListRecords godoc
// @Summary List enrolment records for a course
// @Description Returns enrolment records; requires the view capability
// @Tags Enrolment
// @Produce json
// @Param courseId path string true "Course ID"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{courseId}/enrolments [get]
func (h *EnrolmentHandler) ListRecords(c *gin.Context) {
	claims := claimsFromContext(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, pagination, err := h.service.ListRecords(c.Request.Context(), claims, c.Param("courseId"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, pagination)
}

// currentUser builds the acting user from the request claims. An absent or
// unparseable token yields a guest identity.
func currentUser(c *gin.Context) *models.User {
	claims := claimsFromContext(c)
	if claims == nil {
		return &models.User{Role: models.RoleGuest}
	}
	return &models.User{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
}

func outcomeStatusCode(outcome *models.EnrolmentOutcome) int {
	switch outcome.Status {
	case models.EnrolmentEnrolled:
		return http.StatusCreated
	case models.EnrolmentRejected:
		return http.StatusBadRequest
	default:
		return http.StatusOK
	}
}
