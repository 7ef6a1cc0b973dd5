package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type activeSemesterFinder interface {
	FindActive(ctx context.Context, userID string) (*models.Semester, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	AlertTTL       time.Duration
	UpcomingWindow time.Duration
}

// DashboardService composes the home screen payload for the active semester.
type DashboardService struct {
	semesters   activeSemesterFinder
	snapshots   snapshotProvider
	tests       testLister
	assignments assignmentLister
	cache       *CacheService
	cfg         DashboardServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(semesters activeSemesterFinder, snapshots snapshotProvider, tests testLister, assignments assignmentLister, cache *CacheService, cfg DashboardServiceConfig, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = 12 * time.Hour
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = 7 * 24 * time.Hour
	}
	return &DashboardService{
		semesters:   semesters,
		snapshots:   snapshots,
		tests:       tests,
		assignments: assignments,
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Get returns the dashboard for userID and whether it came from cache.
// ShowAlert is decided per request and is true only for the first request of an alert window.
func (s *DashboardService) Get(ctx context.Context, userID string) (*models.DashboardPayload, bool, error) {
	semester, err := s.semesters.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emptyDashboard(s.now()), false, nil
		}
		return nil, false, appErrors.Internal(err, "failed to load active semester")
	}

	key := dashboardCacheKey(userID, semester.ID)
	var payload models.DashboardPayload
	hit, err := s.cache.Get(ctx, key, &payload)
	if err != nil || !hit {
		built, err := s.build(ctx, *semester)
		if err != nil {
			return nil, false, err
		}
		payload = *built
		if err := s.cache.Set(ctx, key, payload, s.cfg.CacheTTL); err != nil {
			s.logger.Debug("dashboard cache write skipped", zap.String("key", key), zap.Error(err))
		}
		hit = false
	}

	payload.ShowAlert = s.cache.MarkOnce(ctx, alertShownKey(userID, semester.ID), s.cfg.AlertTTL)
	return &payload, hit, nil
}

func (s *DashboardService) build(ctx context.Context, semester models.Semester) (*models.DashboardPayload, error) {
	snapshot, _, err := s.snapshots.Snapshot(ctx, semester)
	if err != nil {
		return nil, err
	}
	tests, err := s.tests.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tests")
	}
	assignments, err := s.assignments.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load assignments")
	}

	now := s.now()
	asOf := models.NewDate(now.UTC())
	records := snapshot.Records
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	subjects := snapshot.Subjects
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return &models.DashboardPayload{
		Semester:     &semester,
		Subjects:     subjects,
		Records:      records,
		Tests:        nonNilTests(tests),
		Assignments:  nonNilAssignments(assignments),
		Schedule:     snapshot.Occurrences,
		Summary:      attendance.Aggregate(snapshot.Occurrences, asOf),
		SubjectStats: subjectStats(snapshot, asOf),
		Upcoming:     upcomingItems(tests, assignments, now, now.Add(s.cfg.UpcomingWindow)),
		GeneratedAt:  now.UTC(),
	}, nil
}

// upcomingItems returns pending tests and assignments due within [from, to], soonest first.
func upcomingItems(tests []models.Test, assignments []models.Assignment, from, to time.Time) []models.UpcomingItem {
	items := make([]models.UpcomingItem, 0)
	within := func(t time.Time) bool { return !t.Before(from) && !t.After(to) }
	for _, test := range tests {
		if test.Status != models.TestPending || !within(test.TestDatetime) {
			continue
		}
		items = append(items, models.UpcomingItem{
			Kind: models.UpcomingTest, ID: test.ID, SubjectID: test.SubjectID,
			SubjectCode: test.SubjectCode, Name: test.Name, DueAt: test.TestDatetime,
		})
	}
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentPending || !within(assignment.Deadline) {
			continue
		}
		items = append(items, models.UpcomingItem{
			Kind: models.UpcomingAssignment, ID: assignment.ID, SubjectID: assignment.SubjectID,
			SubjectCode: assignment.SubjectCode, Name: assignment.Name, DueAt: assignment.Deadline,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].DueAt.Before(items[j].DueAt) })
	return items
}

func emptyDashboard(now time.Time) *models.DashboardPayload {
	return &models.DashboardPayload{
		Subjects:     []models.Subject{},
		Records:      []models.AttendanceRecord{},
		Tests:        []models.Test{},
		Assignments:  []models.Assignment{},
		Schedule:     []models.Occurrence{},
		SubjectStats: []models.SubjectStats{},
		Upcoming:     []models.UpcomingItem{},
		Summary:      attendance.Aggregate(nil, models.NewDate(now.UTC())),
		GeneratedAt:  now.UTC(),
	}
}
