package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/service"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, p authz.Principal, req dto.ReportRequest) (*dto.ReportJobResponse, error)
	GetStatus(ctx context.Context, p authz.Principal, id string) (*dto.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

// ReportHandler exposes evaluation form exports.
type ReportHandler struct {
	service reportService
	logger  *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc reportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{service: svc, logger: logger}
}

// Generate godoc
// @Summary Queue a report export
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Generate(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req dto.ReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download a generated report via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	result, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		if err := result.File.Close(); err != nil {
			h.logger.Warn("failed to close report file", zap.String("file", result.Filename), zap.Error(err))
		}
	}()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Content-Type", result.ContentType)
	c.Header("Cache-Control", "no-store")
	http.ServeContent(c.Writer, c.Request, result.Filename, result.ModTime, result.File)
}
