package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-enrol-api/internal/service"
	"github.com/noah-isme/lms-enrol-api/pkg/response"
)

// CertificateHandler exposes certificate rendering endpoints.
type CertificateHandler struct {
	service *service.CertificateService
}

// NewCertificateHandler creates a new handler.
func NewCertificateHandler(svc *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{service: svc}
}

// Values godoc
// @Summary Resolve certificate element values
// @Description Returns the rendered text for each element of the issue's template
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate issue ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/values [get]
func (h *CertificateHandler) Values(c *gin.Context) {
	values, issue, err := h.service.RenderValues(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"code":   issue.Code,
		"values": values,
	}, nil)
}

// Download godoc
// @Summary Download certificate PDF
// @Description Renders the certificate for an issue as a PDF document
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Certificate issue ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id}/pdf [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	pdf, err := h.service.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=certificate-%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
