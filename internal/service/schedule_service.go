package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type scheduleSubjectRepository interface {
	subjectLister
	subjectReader
}

// SemesterSnapshot is a semester with its subjects, records and expanded occurrences.
type SemesterSnapshot struct {
	Semester    models.Semester
	Subjects    []models.Subject
	Records     []models.AttendanceRecord
	Occurrences []models.Occurrence
}

// ScheduleServiceConfig tunes schedule caching.
type ScheduleServiceConfig struct {
	CacheTTL time.Duration
}

// ScheduleService expands weekly timetables into dated occurrences and derives calendar views.
type ScheduleService struct {
	semesters semesterReader
	subjects  scheduleSubjectRepository
	records   recordLister
	cache     *CacheService
	cfg       ScheduleServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(semesters semesterReader, subjects scheduleSubjectRepository, records recordLister, cache *CacheService, cfg ScheduleServiceConfig, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &ScheduleService{
		semesters: semesters,
		subjects:  subjects,
		records:   records,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Snapshot loads subjects and records for semester and returns the expanded schedule.
// The expansion is cached under a fingerprint of its inputs, so any write produces a new key.
func (s *ScheduleService) Snapshot(ctx context.Context, semester models.Semester) (*SemesterSnapshot, bool, error) {
	loadStart := time.Now()
	subjects, err := s.subjects.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load subjects")
	}
	records, err := s.records.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load attendance records")
	}
	s.cache.ObserveLoad("semester_snapshot", loadStart)

	snapshot := &SemesterSnapshot{Semester: semester, Subjects: subjects, Records: records}
	key := scheduleCacheKey(semester.ID, attendance.Fingerprint(semester, subjects, records))

	var cached []models.Occurrence
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		snapshot.Occurrences = cached
		return snapshot, true, nil
	}

	occurrences, err := attendance.Expand(semester, subjects, records)
	if errors.Is(err, attendance.ErrUnknownWeekday) {
		return nil, false, appErrors.Validation(err, "weekly slots contain an unknown weekday")
	}
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to expand schedule")
	}
	snapshot.Occurrences = occurrences
	if err := s.cache.Set(ctx, key, occurrences, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("schedule cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return snapshot, false, nil
}

// Schedule returns the expanded occurrences of a semester owned by userID.
func (s *ScheduleService) Schedule(ctx context.Context, userID, semesterID string) ([]models.Occurrence, bool, error) {
	semester, err := ownedSemester(ctx, s.semesters, userID, semesterID)
	if err != nil {
		return nil, false, err
	}
	snapshot, hit, err := s.Snapshot(ctx, *semester)
	if err != nil {
		return nil, false, err
	}
	return snapshot.Occurrences, hit, nil
}

// Calendar classifies every class day of month (YYYY-MM). An empty month means the current one.
func (s *ScheduleService) Calendar(ctx context.Context, userID, semesterID, month string) ([]models.DayStatus, error) {
	ref := s.now()
	if month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, appErrors.Validation(err, "month must be formatted as YYYY-MM")
		}
		ref = parsed
	}
	semester, err := ownedSemester(ctx, s.semesters, userID, semesterID)
	if err != nil {
		return nil, err
	}
	snapshot, _, err := s.Snapshot(ctx, *semester)
	if err != nil {
		return nil, err
	}
	return attendance.Calendar(snapshot.Occurrences, ref.Year(), ref.Month()), nil
}

// SubjectInsights returns stats, trend and log for one subject.
func (s *ScheduleService) SubjectInsights(ctx context.Context, userID, subjectID string) (*models.SubjectInsights, error) {
	subject, semester, err := ownedSubject(ctx, s.subjects, s.semesters, userID, subjectID)
	if err != nil {
		return nil, err
	}
	snapshot, _, err := s.Snapshot(ctx, *semester)
	if err != nil {
		return nil, err
	}
	asOf := today(s.now)
	return &models.SubjectInsights{
		Subject: *subject,
		Stats:   attendance.SubjectStats(*subject, snapshot.Occurrences, asOf),
		Trend:   attendance.Trend(subject.ID, snapshot.Occurrences, asOf),
		Log:     attendance.Log(subject.ID, snapshot.Occurrences, asOf),
	}, nil
}

// subjectStats computes per-subject statistics for a snapshot.
func subjectStats(snapshot *SemesterSnapshot, asOf models.Date) []models.SubjectStats {
	stats := make([]models.SubjectStats, 0, len(snapshot.Subjects))
	for _, subject := range snapshot.Subjects {
		stats = append(stats, attendance.SubjectStats(subject, snapshot.Occurrences, asOf))
	}
	return stats
}

func describeSemester(semester models.Semester) string {
	if semester.Year == "" {
		return semester.Name
	}
	return fmt.Sprintf("%s %s", semester.Name, semester.Year)
}
