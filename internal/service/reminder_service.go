package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
)

// JobTypeReminder tags reminder jobs on the notification queue.
const JobTypeReminder = "reminder"

var (
	classReminderOffsets      = []time.Duration{10 * time.Minute}
	testReminderOffsets       = []time.Duration{24 * time.Hour, 6 * time.Hour, time.Hour, 30 * time.Minute}
	assignmentReminderOffsets = []time.Duration{24 * time.Hour, 3 * time.Hour, time.Hour}
)

type reminderCandidateSource interface {
	ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error)
}

type classReminderSource interface {
	ListActiveWithClassReminders(ctx context.Context) ([]models.SemesterOwner, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReminderServiceConfig tunes the reminder scan.
type ReminderServiceConfig struct {
	// Interval is how often Scan runs. A reminder fires on the first scan at or after its due time.
	Interval time.Duration
	Location *time.Location
}

// ReminderService finds due reminders, deduplicates them and delivers them through the job queue.
type ReminderService struct {
	tests       reminderCandidateSource
	assignments reminderCandidateSource
	semesters   classReminderSource
	snapshots   snapshotProvider
	cache       *CacheService
	queue       jobEnqueuer
	sender      mailer.Sender
	metrics     *MetricsService
	cfg         ReminderServiceConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewReminderService constructs the reminder service. Call SetQueue before Scan.
func NewReminderService(tests, assignments reminderCandidateSource, semesters classReminderSource, snapshots snapshotProvider, cache *CacheService, sender mailer.Sender, metrics *MetricsService, cfg ReminderServiceConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReminderService{
		tests:       tests,
		assignments: assignments,
		semesters:   semesters,
		snapshots:   snapshots,
		cache:       cache,
		sender:      sender,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// SetQueue attaches the queue reminders are dispatched on. The queue's handler is usually Deliver.
func (s *ReminderService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Scan enqueues every reminder that became due since the previous scan and returns how many were queued.
func (s *ReminderService) Scan(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, fmt.Errorf("reminder queue not configured")
	}
	now := s.now().In(s.cfg.Location)
	var reminders []models.Reminder

	for _, offset := range testReminderOffsets {
		found, err := s.coursework(ctx, s.tests, models.ReminderTest, offset, now)
		if err != nil {
			return 0, err
		}
		reminders = append(reminders, found...)
	}
	for _, offset := range assignmentReminderOffsets {
		found, err := s.coursework(ctx, s.assignments, models.ReminderAssignment, offset, now)
		if err != nil {
			return 0, err
		}
		reminders = append(reminders, found...)
	}
	classes, err := s.classes(ctx, now)
	if err != nil {
		return 0, err
	}
	reminders = append(reminders, classes...)

	queued := 0
	for _, reminder := range reminders {
		key := reminderKey(reminder.Kind, reminder.ItemID, reminder.Offset)
		if !s.cache.MarkOnce(ctx, key, reminder.Offset+2*s.cfg.Interval) {
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: key, Type: JobTypeReminder, Payload: reminder}); err != nil {
			s.logger.Warn("enqueue reminder failed", zap.String("key", key), zap.Error(err))
			continue
		}
		queued++
	}
	if queued > 0 {
		s.logger.Info("reminders queued", zap.Int("count", queued))
	}
	return queued, nil
}

// coursework finds pending items whose reminder time (due - offset) fell within the last interval.
func (s *ReminderService) coursework(ctx context.Context, source reminderCandidateSource, kind models.ReminderKind, offset time.Duration, now time.Time) ([]models.Reminder, error) {
	from := now.Add(offset - s.cfg.Interval)
	to := now.Add(offset)
	candidates, err := source.ListReminderCandidates(ctx, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, fmt.Sprintf("failed to list %s reminders", kind))
	}
	out := make([]models.Reminder, 0, len(candidates))
	for _, c := range candidates {
		channels := c.Preferences.For(kind)
		if !channels.Email && !channels.Push {
			continue
		}
		out = append(out, models.Reminder{
			Kind:      kind,
			ItemID:    c.ItemID,
			Offset:    offset,
			UserID:    c.UserID,
			Email:     c.Email,
			FullName:  c.FullName,
			Title:     courseworkTitle(kind, c, offset),
			Body:      fmt.Sprintf("%s (%s %s) is due %s.", c.Name, c.SubjectCode, c.SubjectName, c.DueAt.In(s.cfg.Location).Format("Mon 02 Jan 15:04")),
			DueAt:     c.DueAt,
			SendEmail: channels.Email,
			SendPush:  channels.Push,
		})
	}
	return out, nil
}

// classes finds held classes starting within the lead time of the class offset.
// The next day is scanned too when the lead time reaches past midnight.
func (s *ReminderService) classes(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	owners, err := s.semesters.ListActiveWithClassReminders(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class reminder owners")
	}
	days := classReminderDays(now)
	out := make([]models.Reminder, 0)
	for _, owner := range owners {
		var open []models.Date
		for _, day := range days {
			if owner.Semester.Contains(day) {
				open = append(open, day)
			}
		}
		if len(open) == 0 {
			continue
		}
		snapshot, _, err := s.snapshots.Snapshot(ctx, owner.Semester)
		if err != nil {
			s.logger.Warn("class reminder snapshot failed", zap.String("semester_id", owner.ID), zap.Error(err))
			continue
		}
		channels := owner.Preferences.For(models.ReminderClass)
		for _, day := range open {
			for _, occ := range attendance.OnDate(snapshot.Occurrences, day) {
				if !occ.OfficialStatus.Held() {
					continue
				}
				minutes, err := attendance.ParseClock(occ.StartTime)
				if err != nil {
					continue
				}
				start := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, s.cfg.Location)
				for _, offset := range classReminderOffsets {
					at := start.Add(-offset)
					if at.After(now) || !at.After(now.Add(-s.cfg.Interval)) {
						continue
					}
					out = append(out, models.Reminder{
						Kind:      models.ReminderClass,
						ItemID:    fmt.Sprintf("%s@%sT%s", occ.SubjectID, day, occ.StartTime),
						Offset:    offset,
						UserID:    owner.UserID,
						Email:     owner.Email,
						FullName:  owner.FullName,
						Title:     fmt.Sprintf("%s starts in %s", occ.SubjectCode, humanOffset(offset)),
						Body:      fmt.Sprintf("%s %s starts at %s.", occ.SubjectCode, occ.SubjectName, occ.StartTime),
						DueAt:     start,
						SendEmail: channels.Email,
						SendPush:  channels.Push,
					})
				}
			}
		}
	}
	return out, nil
}

// classReminderDays lists the local calendar days a class reminder due now can belong to.
func classReminderDays(now time.Time) []models.Date {
	days := []models.Date{models.NewDate(now)}
	var lead time.Duration
	for _, offset := range classReminderOffsets {
		if offset > lead {
			lead = offset
		}
	}
	if next := models.NewDate(now.Add(lead)); !next.Equal(days[0]) {
		days = append(days, next)
	}
	return days
}

// Deliver is the queue handler for reminder jobs.
func (s *ReminderService) Deliver(ctx context.Context, job jobs.Job) error {
	reminder, ok := job.Payload.(models.Reminder)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	if reminder.SendEmail && reminder.Email != "" {
		err := s.sender.Send(ctx, mailer.Message{
			ToName:  reminder.FullName,
			ToEmail: reminder.Email,
			Subject: reminder.Title,
			Text:    reminder.Body,
		})
		if err != nil {
			return fmt.Errorf("send %s reminder email: %w", reminder.Kind, err)
		}
		if s.metrics != nil {
			s.metrics.RecordReminder(reminder.Kind, "email")
		}
	}
	if reminder.SendPush {
		s.logger.Debug("push reminder skipped, push delivery disabled",
			zap.String("user_id", reminder.UserID), zap.String("kind", string(reminder.Kind)))
	}
	return nil
}

func courseworkTitle(kind models.ReminderKind, c models.ReminderCandidate, offset time.Duration) string {
	noun := "Test"
	if kind == models.ReminderAssignment {
		noun = "Assignment"
	}
	return fmt.Sprintf("%s in %s: %s", noun, humanOffset(offset), c.Name)
}

func humanOffset(offset time.Duration) string {
	switch {
	case offset == 24*time.Hour:
		return "1 day"
	case offset >= time.Hour && offset%time.Hour == 0:
		hours := int(offset / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	default:
		return fmt.Sprintf("%d minutes", int(offset/time.Minute))
	}
}
