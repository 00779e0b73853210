package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-enrol-api/internal/middleware"
	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/internal/service"
	appErrors "github.com/noah-isme/lms-enrol-api/pkg/errors"
	"github.com/noah-isme/lms-enrol-api/pkg/response"
)

// InstanceHandler exposes enrol instance administration endpoints.
type InstanceHandler struct {
	service *service.InstanceService
}

// NewInstanceHandler creates a new handler.
func NewInstanceHandler(svc *service.InstanceService) *InstanceHandler {
	return &InstanceHandler{service: svc}
}

// List godoc
// @Summary List enrol instances
// @Description Returns enrol instances with filtering and pagination
// @Tags Instances
// @Produce json
// @Param course_id query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /instances [get]
func (h *InstanceHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := models.InstanceFilter{
		CourseID:  c.Query("course_id"),
		Status:    models.InstanceStatus(c.Query("status")),
		Page:      page,
		PageSize:  size,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	instances, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instances, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get enrol instance
// @Description Returns a single enrol instance by ID
// @Tags Instances
// @Produce json
// @Param id path string true "Instance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /instances/{id} [get]
func (h *InstanceHandler) Get(c *gin.Context) {
	instance, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instance, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create enrol instance
// @Description Adds self-enrolment to a course; requires the configure capability
// @Tags Instances
// @Accept json
// @Produce json
// @Param payload body service.CreateInstanceRequest true "Instance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /instances [post]
func (h *InstanceHandler) Create(c *gin.Context) {
	var req service.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instance payload"))
		return
	}

	instance, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, instance)
}

// Update godoc
// @Summary Update enrol instance
// @Description Updates instance configuration; requires the configure capability
// @Tags Instances
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param payload body service.UpdateInstanceRequest true "Instance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /instances/{id} [put]
func (h *InstanceHandler) Update(c *gin.Context) {
	var req service.UpdateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid instance payload"))
		return
	}

	instance, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instance, nil)
}

// Delete godoc
// @Summary Delete enrol instance
// @Description Removes an enrol instance; existing enrolments are kept
// @Tags Instances
// @Produce json
// @Param id path string true "Instance ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /instances/{id} [delete]
func (h *InstanceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
