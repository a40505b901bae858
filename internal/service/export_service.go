package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/scoring"
	"github.com/gridtrain/eval-api/pkg/export"
	"github.com/gridtrain/eval-api/pkg/storage"
)

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (io.ReadSeekCloser, os.FileInfo, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	Extension() string
	ContentType() string
}

type exportCycleSource interface {
	FindByID(ctx context.Context, id string) (*models.Cycle, error)
}

type exportSessionSource interface {
	FindByID(ctx context.Context, id string) (*models.SimulatorSession, error)
	ListResults(ctx context.Context, sessionID string) ([]models.SessionStepResult, error)
}

type exportScenarioSource interface {
	FindByID(ctx context.Context, id string) (*models.SimulatorScenario, error)
	ListSteps(ctx context.Context, scenarioID string) ([]models.ScenarioStep, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportServiceParams groups the collaborators of ExportService.
type ExportServiceParams struct {
	Cycles    exportCycleSource
	Events    cycleEventLister
	Sessions  exportSessionSource
	Scenarios exportScenarioSource
	Users     userLookup
	Storage   fileStorage
	Signer    *storage.SignedURLSigner
	CSV       datasetRenderer
	PDF       datasetRenderer
	Policy    scoring.Policy
	Config    ExportConfig
	Logger    *zap.Logger
}

// ExportService renders cycle and session evaluation forms and stores them.
type ExportService struct {
	cycles    exportCycleSource
	events    cycleEventLister
	sessions  exportSessionSource
	scenarios exportScenarioSource
	users     userLookup
	storage   fileStorage
	signer    *storage.SignedURLSigner
	csv       datasetRenderer
	pdf       datasetRenderer
	policy    scoring.Policy
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Config.ResultTTL <= 0 {
		params.Config.ResultTTL = 24 * time.Hour
	}
	if params.CSV == nil {
		params.CSV = export.NewCSVExporter()
	}
	if params.PDF == nil {
		params.PDF = export.NewPDFExporter()
	}
	return &ExportService{
		cycles:    params.Cycles,
		events:    params.Events,
		sessions:  params.Sessions,
		scenarios: params.Scenarios,
		users:     params.Users,
		storage:   params.Storage,
		signer:    params.Signer,
		csv:       params.CSV,
		pdf:       params.PDF,
		policy:    params.Policy,
		logger:    params.Logger,
		cfg:       params.Config,
		now:       time.Now,
	}
}

// Generate builds the dataset for job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var renderer datasetRenderer
	switch job.Params.Format {
	case models.ReportFormatCSV:
		renderer = s.csv
	case models.ReportFormatPDF:
		renderer = s.pdf
	default:
		return nil, fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/reports/download/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.DownloadClaims, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (io.ReadSeekCloser, os.FileInfo, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// ContentType reports the MIME type of a format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if format == models.ReportFormatPDF {
		return s.pdf.ContentType()
	}
	return s.csv.ContentType()
}

func (s *ExportService) buildFilename(job *models.ReportJob, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s/%s_%s_%s.%s", sanitizeFilename(job.CompanyID), job.Type, sanitizeFilename(job.Params.ResourceID), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeCycle:
		return s.cycleDataset(ctx, job.Params.ResourceID)
	case models.ReportTypeSession:
		return s.sessionDataset(ctx, job.Params.ResourceID)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) cycleDataset(ctx context.Context, id string) (export.Dataset, error) {
	cycle, err := s.cycles.FindByID(ctx, id)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load cycle %s: %w", id, err)
	}
	events, err := s.events.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load events of %s: %w", id, err)
	}
	scoring.ApplyVerdict(cycle, s.policy)

	verdict := "Not approved"
	if cycle.Approved {
		verdict = "Approved"
	}
	data := export.Dataset{
		Title: "Cycle evaluation: " + cycle.Title,
		Summary: []export.KeyValue{
			{Key: "Student", Value: s.userName(ctx, cycle.StudentID)},
			{Key: "Trainer", Value: s.userName(ctx, cycle.TrainerID)},
			{Key: "Type", Value: string(cycle.Type)},
			{Key: "Status", Value: string(cycle.Status)},
			{Key: "Progress", Value: strconv.Itoa(cycle.Progress) + "%"},
			{Key: "Score", Value: formatScore(cycle.Score)},
			{Key: "Minimum passing", Value: formatFloat(cycle.MinPassingScore)},
			{Key: "Verdict", Value: verdict},
		},
		Headers: []string{"Sequence", "Event", "Status", "Score", "Max Score", "Weight", "Attempt", "Penalty", "Original Score", "Evaluated At"},
	}
	for _, e := range events {
		penalty := ""
		if e.PenaltyAmount != nil {
			penalty = formatScore(e.PenaltyAmount)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Sequence":       strconv.Itoa(e.Sequence),
			"Event":          e.Title,
			"Status":         string(e.Status),
			"Score":          formatScore(e.Score),
			"Max Score":      formatFloat(e.MaxScore),
			"Weight":         formatFloat(e.Weight),
			"Attempt":        strconv.Itoa(e.AttemptNumber),
			"Penalty":        penalty,
			"Original Score": formatScore(e.OriginalScore),
			"Evaluated At":   formatTime(e.EvaluatedAt),
		})
	}
	return data, nil
}

func (s *ExportService) sessionDataset(ctx context.Context, id string) (export.Dataset, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load session %s: %w", id, err)
	}
	scenario, err := s.scenarios.FindByID(ctx, session.ScenarioID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load scenario %s: %w", session.ScenarioID, err)
	}
	steps, err := s.scenarios.ListSteps(ctx, scenario.ID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load steps of %s: %w", scenario.ID, err)
	}
	results, err := s.sessions.ListResults(ctx, session.ID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load results of %s: %w", id, err)
	}
	byStep := make(map[string]models.SessionStepResult, len(results))
	for _, r := range results {
		byStep[r.StepID] = r
	}

	passed := "n/a"
	if session.Passed != nil {
		passed = strconv.FormatBool(*session.Passed)
	}
	data := export.Dataset{
		Title: "Simulator session: " + scenario.Title,
		Summary: []export.KeyValue{
			{Key: "Student", Value: s.userName(ctx, session.StudentID)},
			{Key: "Category", Value: string(scenario.Category)},
			{Key: "Difficulty", Value: string(scenario.Difficulty)},
			{Key: "Status", Value: string(session.Status)},
			{Key: "Score", Value: formatScore(session.Score) + " / " + formatScore(session.MaxScore)},
			{Key: "Maneuver precision", Value: formatScore(session.ManeuverPrecision)},
			{Key: "Procedure adherence", Value: formatScore(session.ProcedureAdherence)},
			{Key: "Mean response time", Value: formatScore(session.ResponseTime)},
			{Key: "Critical failure", Value: strconv.FormatBool(session.CriticalFailure)},
			{Key: "Passed", Value: passed},
		},
		Headers: []string{"Step", "Title", "Critical", "Correct", "Points", "Max Points", "Response Time", "Action"},
	}
	for _, step := range steps {
		row := map[string]string{
			"Step":       strconv.Itoa(step.StepOrder),
			"Title":      step.Title,
			"Critical":   strconv.FormatBool(step.IsCritical),
			"Max Points": formatFloat(step.Points),
		}
		if r, ok := byStep[step.ID]; ok {
			row["Correct"] = strconv.FormatBool(r.IsCorrect)
			row["Points"] = formatFloat(r.PointsAwarded)
			row["Response Time"] = formatFloat(r.ResponseTime)
			if r.ActionTaken != nil {
				row["Action"] = *r.ActionTaken
			}
		}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

func (s *ExportService) userName(ctx context.Context, id string) string {
	if s.users == nil || id == "" {
		return id
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		s.logger.Debug("export user lookup failed", zap.String("user_id", id), zap.Error(err))
		return id
	}
	return user.Name
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatScore(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
