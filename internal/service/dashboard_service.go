package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gridtrain/eval-api/internal/authz"
	"github.com/gridtrain/eval-api/internal/models"
	"github.com/gridtrain/eval-api/internal/scoring"
	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

type dashboardRepository interface {
	UsersByRole(ctx context.Context, companyID string) ([]models.CountByKey, error)
	CyclesByStatus(ctx context.Context, companyID string) ([]models.CountByKey, error)
	CycleAggregate(ctx context.Context, companyID string) (*models.CycleAggregate, error)
	SessionsByStatus(ctx context.Context, companyID string) ([]models.CountByKey, error)
	SessionAggregate(ctx context.Context, companyID string) (*models.SessionAggregate, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the per-company overview and caches it.
type DashboardService struct {
	repo      dashboardRepository
	companies companyLookup
	cache     *CacheService
	policy    scoring.Policy
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Repo      dashboardRepository
	Companies companyLookup
	Cache     *CacheService
	Policy    scoring.Policy
	Logger    *zap.Logger
	Config    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:      params.Repo,
		companies: params.Companies,
		cache:     params.Cache,
		policy:    params.Policy,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

func dashboardKey(companyID string) string {
	return TenantKey(companyID, "dashboard")
}

// Company returns the summary of one company and reports whether it came from cache.
func (s *DashboardService) Company(ctx context.Context, p authz.Principal, companyID string) (*models.CompanyDashboard, bool, error) {
	companyID, err := resolveCompany(p, companyID)
	if err != nil {
		return nil, false, err
	}
	if err := authz.Authorize(p, authz.Perm(authz.ResourceDashboard, authz.ActionRead), authz.Target{CompanyID: companyID}); err != nil {
		return nil, false, err
	}
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, false, loadError(err, "company")
	}
	if err := ensureTenantVisible(ctx, s.companies, p, companyID, "company"); err != nil {
		return nil, false, err
	}

	key := dashboardKey(companyID)
	if summary, hit := s.tryCache(ctx, key); hit {
		return summary, true, nil
	}
	summary, err := s.compose(ctx, companyID)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// InvalidateCompany drops the cached summary of a company.
func (s *DashboardService) InvalidateCompany(ctx context.Context, companyID string) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTenant(ctx, companyID); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.String("company_id", companyID), zap.Error(err))
	}
}

func (s *DashboardService) compose(ctx context.Context, companyID string) (*models.CompanyDashboard, error) {
	users, err := s.repo.UsersByRole(ctx, companyID)
	if err != nil {
		return nil, dashboardError(err, "users")
	}
	cycles, err := s.repo.CyclesByStatus(ctx, companyID)
	if err != nil {
		return nil, dashboardError(err, "cycles")
	}
	cycleAgg, err := s.repo.CycleAggregate(ctx, companyID)
	if err != nil {
		return nil, dashboardError(err, "cycle scores")
	}
	sessions, err := s.repo.SessionsByStatus(ctx, companyID)
	if err != nil {
		return nil, dashboardError(err, "sessions")
	}
	sessionAgg, err := s.repo.SessionAggregate(ctx, companyID)
	if err != nil {
		return nil, dashboardError(err, "session scores")
	}

	summary := &models.CompanyDashboard{
		CompanyID:        companyID,
		UsersByRole:      countMap(users),
		CyclesByStatus:   countMap(cycles),
		SessionsByStatus: countMap(sessions),
		GeneratedAt:      s.now().UTC(),
	}
	if cycleAgg != nil {
		summary.AverageCycleScore = s.round(cycleAgg.AverageScore)
		summary.ApprovalRate = s.rate(cycleAgg.Approved, cycleAgg.Completed)
	}
	if sessionAgg != nil {
		summary.AverageSessionScore = s.round(sessionAgg.AverageScore)
		summary.AveragePrecision = s.round(sessionAgg.AveragePrecision)
		summary.SessionPassRate = s.rate(sessionAgg.Passed, sessionAgg.Finished)
		summary.CriticalFailures = sessionAgg.CriticalFailures
	}
	return summary, nil
}

func (s *DashboardService) round(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := s.policy.Round(*v)
	return &out
}

func (s *DashboardService) rate(part, whole int) *float64 {
	if whole <= 0 {
		return nil
	}
	out := s.policy.Round(100 * float64(part) / float64(whole))
	return &out
}

func (s *DashboardService) tryCache(ctx context.Context, key string) (*models.CompanyDashboard, bool) {
	if s.cache == nil {
		return nil, false
	}
	var cached models.CompanyDashboard
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil || !hit {
		return nil, false
	}
	return &cached, true
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func countMap(rows []models.CountByKey) map[string]int {
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out
}

func dashboardError(err error, part string) error {
	return appErrors.Wrap(appErrors.ErrInternal, err, "failed to summarise "+part)
}
