package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/gridtrain/eval-api/pkg/errors"
)

const (
	cacheFailureThreshold = 3
	cacheBypassWindow     = 30 * time.Second
)

// CacheRepository is the key/value backend behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// TenantKey builds a cache key scoped to one company.
func TenantKey(companyID string, parts ...string) string {
	return "tenant:" + companyID + ":" + strings.Join(parts, ":")
}

// CacheService stores derived read models per tenant. After repeated backend
// errors it stops calling the backend for a short window and serves misses.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
	enabled bool
	now     func() time.Time

	mu          sync.Mutex
	failures    int
	bypassUntil time.Time
}

// NewCacheService wires the cache. A non-positive ttl falls back to ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:    repo,
		metrics: metrics,
		logger:  logger,
		ttl:     defaultTTL,
		enabled: enabled,
		now:     time.Now,
	}
}

// Enabled reports whether reads and writes reach the backend.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes key into dest and reports a hit. Misses and bypassed calls
// return false with a nil error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() || s.bypassed() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		s.recordOutcome(nil)
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		s.recordOutcome(nil)
		return false, nil
	default:
		s.recordOutcome(err)
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set writes value under key; ttl <= 0 uses the service default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() || s.bypassed() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	s.recordOutcome(err)
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every key matching pattern. It is attempted even while
// reads are bypassed so stale entries do not survive the outage.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	s.recordOutcome(err)
	if err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
	return err
}

// InvalidateTenant drops everything cached for one company.
func (s *CacheService) InvalidateTenant(ctx context.Context, companyID string) error {
	return s.Invalidate(ctx, TenantKey(companyID, "*"))
}

func (s *CacheService) bypassed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.bypassUntil)
}

func (s *CacheService) recordOutcome(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.failures = 0
		return
	}
	s.failures++
	if s.failures >= cacheFailureThreshold {
		s.bypassUntil = s.now().Add(cacheBypassWindow)
		s.failures = 0
		s.logger.Warn("cache backend unhealthy, bypassing", zap.Duration("window", cacheBypassWindow))
	}
}
