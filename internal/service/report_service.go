package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/dto"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/repository"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
	"github.com/gridtrain/eval-api/pkg/jobs"
	"github.com/gridtrain/eval-api/pkg/storage"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ExpireFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type exportFiles interface {
	ParseToken(token string, allowExpired bool) (storage.DownloadClaims, error)
	Open(relPath string) (io.ReadSeekCloser, os.FileInfo, error)
	Cleanup(ttl time.Duration) ([]string, error)
	ContentType(format models.ReportFormat) string
}

type reportMetrics interface {
	RecordReportJob(status string)
}

// ReportServiceConfig governs queue recovery and cleanup. APIPrefix is used
// to build the status link returned on enqueue.
type ReportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportServiceParams groups the collaborators of ReportService.
type ReportServiceParams struct {
	Repo      reportJobStore
	Cycles    exportCycleSource
	Sessions  exportSessionSource
	Companies companyLookup
	Queue     jobDispatcher
	Files     exportFiles
	Metrics   reportMetrics
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    ReportServiceConfig
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	repo      reportJobStore
	cycles    exportCycleSource
	sessions  exportSessionSource
	companies companyLookup
	queue     jobDispatcher
	files     exportFiles
	metrics   reportMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        io.ReadSeekCloser
	Filename    string
	ContentType string
	ModTime     time.Time
	ExpiresAt   time.Time
}

// NewReportService constructs the report service.
func NewReportService(params ReportServiceParams) *ReportService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Config.ResultTTL <= 0 {
		params.Config.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:      params.Repo,
		cycles:    params.Cycles,
		sessions:  params.Sessions,
		companies: params.Companies,
		queue:     params.Queue,
		files:     params.Files,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
		cfg:       params.Config,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ReportService) CreateJob(ctx context.Context, p authz.Principal, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report request")
	}
	target, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceReport, authz.ActionCreate), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, target.CompanyID, string(req.Type)); err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		ID:        uuid.NewString(),
		CompanyID: target.CompanyID,
		Type:      req.Type,
		Params:    models.ReportJobParams{ResourceID: req.ResourceID, Format: req.Format, Owner: target.OwnerID},
		Status:    models.ReportStatusQueued,
		CreatedBy: p.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, appErrors.Wrap(appErrors.ErrInternal, err, "failed to enqueue report job")
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress, StatusURL: s.statusURL(job.ID)}, nil
}

// GetStatus exposes job metadata to callers allowed to read the job.
func (s *ReportService) GetStatus(ctx context.Context, p authz.Principal, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "report job")
	}
	target := authz.Target{CompanyID: job.CompanyID, OwnerID: job.Params.Owner}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceReport, authz.ActionRead), target); err != nil {
		return nil, err
	}
	if err := ensureTenantVisible(ctx, s.companies, p, job.CompanyID, "report job"); err != nil {
		return nil, err
	}
	resp := &dto.ReportStatusResponse{
		ID:         job.ID,
		Type:       job.Type,
		Format:     job.Params.Format,
		Status:     job.Status,
		Progress:   job.Progress,
		ResultURL:  job.ResultURL,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

func (s *ReportService) statusURL(id string) string {
	return strings.TrimRight(s.cfg.APIPrefix, "/") + "/reports/" + id
}

// ResolveDownload validates the signed token and opens the stored file. The
// token is the credential.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	claims, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, claims.JobID)
	if err != nil {
		return nil, loadError(err, "report job")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, info, err := s.files.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(appErrors.ErrNotFound, err, "export file no longer available")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(claims.Path),
		ContentType: s.files.ContentType(job.Params.Format),
		ModTime:     info.ModTime(),
		ExpiresAt:   claims.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover queued report jobs", zap.Error(err))
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue pending job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered queued report jobs", zap.Int("count", len(pending)))
	}
}

// HandleGiveUp marks a job failed once the queue stops retrying it.
func (s *ReportService) HandleGiveUp(job jobs.Job, err error) {
	msg := "report generation failed"
	if err != nil {
		msg = err.Error()
	}
	s.markFailed(context.Background(), job.ID, msg)
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ReportService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ExpireFinishedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Warn("report link expiry failed", zap.Error(err))
	}
	removed, err := s.files.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report file cleanup failed", zap.Error(err))
	}
	if expired > 0 || len(removed) > 0 {
		s.logger.Info("expired report exports", zap.Int64("jobs", expired), zap.Int("files", len(removed)))
	}
}

func (s *ReportService) markFailed(ctx context.Context, id, msg string) {
	status := models.ReportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &status,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark report job failed", zap.String("job_id", id), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(string(models.ReportStatusFailed))
	}
}

func (s *ReportService) resolveTarget(ctx context.Context, req dto.ReportRequest) (authz.Target, error) {
	switch req.Type {
	case models.ReportTypeCycle:
		cycle, err := s.cycles.FindByID(ctx, req.ResourceID)
		if err != nil {
			return authz.Target{}, loadError(err, "cycle")
		}
		return authz.Target{CompanyID: cycle.CompanyID, OwnerID: cycle.StudentID}, nil
	case models.ReportTypeSession:
		session, err := s.sessions.FindByID(ctx, req.ResourceID)
		if err != nil {
			return authz.Target{}, loadError(err, "session")
		}
		return authz.Target{CompanyID: session.CompanyID, OwnerID: session.StudentID}, nil
	}
	return authz.Target{}, appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo     reportJobStore
	exporter exportGenerator
	metrics  reportMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportWorker constructs a worker.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, metrics reportMetrics, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, now: time.Now}
}

// Handle processes a queue job. Failures leave the job queued for the next
// attempt; the queue's give-up hook marks it failed.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		return nil
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing, Progress: &progress}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		queued := models.ReportStatusQueued
		reset := 0
		if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &queued,
			Progress:     &reset,
			ErrorMessage: &msg,
		}); updateErr != nil {
			w.logger.Warn("failed to requeue report job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := w.now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark report job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	if w.metrics != nil {
		w.metrics.RecordReportJob(string(models.ReportStatusFinished))
	}
	w.logger.Info("report generated", zap.String("job_id", job.ID), zap.String("type", string(record.Type)), zap.String("path", result.RelativePath))
	return nil
}
