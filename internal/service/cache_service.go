package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Key namespaces. Schedules are keyed by an input fingerprint, so they never
// need explicit invalidation to stay correct; dashboards are keyed per owner.
const (
	scheduleKeyPrefix  = "schedule"
	dashboardKeyPrefix = "dash"
	alertKeyPrefix     = "alert:shown"
	reminderKeyPrefix  = "reminder"
)

func scheduleCacheKey(semesterID, fingerprint string) string {
	return fmt.Sprintf("%s:%s:%s", scheduleKeyPrefix, semesterID, fingerprint)
}

func dashboardCacheKey(userID, semesterID string) string {
	return fmt.Sprintf("%s:%s:%s", dashboardKeyPrefix, userID, semesterID)
}

func alertShownKey(userID, semesterID string) string {
	return fmt.Sprintf("%s:%s:%s", alertKeyPrefix, userID, semesterID)
}

func reminderKey(kind models.ReminderKind, itemID string, offset time.Duration) string {
	return fmt.Sprintf("%s:%s:%s:%s", reminderKeyPrefix, kind, itemID, offset)
}

// CacheService fronts Redis for schedule expansions, dashboards and one-shot
// markers, reporting hits and latencies to MetricsService.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether payload caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get fills dest from the cache and reports whether the key was present.
// A miss is not an error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes every key matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateDashboards drops every cached dashboard of userID.
func (s *CacheService) InvalidateDashboards(ctx context.Context, userID string) {
	_ = s.Invalidate(ctx, fmt.Sprintf("%s:%s:*", dashboardKeyPrefix, userID))
}

// InvalidateSemester drops the cached expansions of semesterID and the owner's dashboards.
func (s *CacheService) InvalidateSemester(ctx context.Context, userID, semesterID string) {
	_ = s.Invalidate(ctx, fmt.Sprintf("%s:%s:*", scheduleKeyPrefix, semesterID))
	s.InvalidateDashboards(ctx, userID)
}

// MarkOnce records key for ttl and reports whether this call set it. It
// ignores the enabled switch since markers are state, not cached data. Errors
// report true so a Redis outage repeats a reminder rather than losing it.
func (s *CacheService) MarkOnce(ctx context.Context, key string, ttl time.Duration) bool {
	if s == nil || s.repo == nil {
		return true
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	created, err := s.repo.SetNX(ctx, key, ttl)
	if err != nil {
		s.logger.Warn("cache setnx failed", zap.String("key", key), zap.Error(err))
		return true
	}
	return created
}

// ObserveLoad reports the time spent loading label from the database since start.
func (s *CacheService) ObserveLoad(label string, start time.Time) {
	if s == nil {
		return
	}
	s.metrics.ObserveDBQuery(label, time.Since(start))
}
