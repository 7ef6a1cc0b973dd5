package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type calendarRenderer interface {
	Render(title string, events []export.CalendarEvent) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	// Location is used for class times when a job carries no timezone.
	Location *time.Location
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// FileExport is an in-memory export returned directly to the caller.
type FileExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

var semesterReportHeaders = []string{
	"Code", "Subject", "Professor",
	"Personal Attended", "Personal Total", "Personal %",
	"Official Attended", "Official Total", "Official %",
}

var subjectLogHeaders = []string{"Date", "Day", "Official Status", "Your Status", "Duration (hrs)"}

// ExportService renders semester reports and persists them behind signed download tokens.
type ExportService struct {
	semesters   semesterReader
	subjects    subjectReader
	snapshots   snapshotProvider
	tests       testLister
	assignments assignmentLister
	storage     fileStorage
	renderers   map[models.ReportFormat]export.Renderer
	calendar    calendarRenderer
	signer      *storage.SignedURLSigner
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ExportConfig
	now         func() time.Time
}

// NewExportService constructs an ExportService with the csv, pdf, xlsx and ics renderers.
func NewExportService(semesters semesterReader, subjects subjectReader, snapshots snapshotProvider, tests testLister, assignments assignmentLister, storage fileStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ExportService{
		semesters:   semesters,
		subjects:    subjects,
		snapshots:   snapshots,
		tests:       tests,
		assignments: assignments,
		storage:     storage,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
		},
		calendar: export.NewICSExporter(""),
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Generate renders the job's semester report and stores it.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	semester, err := s.semesters.FindByID(ctx, job.SemesterID)
	if err != nil {
		return nil, fmt.Errorf("load semester %s: %w", job.SemesterID, err)
	}
	snapshot, _, err := s.snapshots.Snapshot(ctx, *semester)
	if err != nil {
		return nil, err
	}
	asOf := today(s.now)
	if job.Params.AsOf != nil {
		asOf = *job.Params.AsOf
	}
	title := fmt.Sprintf("Attendance Report %s", describeSemester(*semester))

	var payload []byte
	extension := string(job.Format)
	if job.Format == models.ReportFormatICS {
		events, err := s.calendarEvents(ctx, snapshot, s.location(job.Params.Timezone))
		if err != nil {
			return nil, err
		}
		payload, err = s.calendar.Render(title, events)
		if err != nil {
			return nil, err
		}
	} else {
		renderer, ok := s.renderers[job.Format]
		if !ok {
			return nil, fmt.Errorf("unsupported format %s", job.Format)
		}
		dataset := SemesterDataset(snapshot, asOf)
		dataset.Title = title
		payload, err = renderer.Render(dataset)
		if err != nil {
			return nil, err
		}
		extension = renderer.Extension()
	}

	relPath, err := s.storage.Save(s.buildFilename(job, *semester, extension), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	if s.metrics != nil {
		s.metrics.RecordExport(job.Format)
	}
	s.logger.Info("report generated", zap.String("job_id", job.ID), zap.String("format", string(job.Format)), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// SubjectLogCSV exports every past class of one subject, oldest first.
func (s *ExportService) SubjectLogCSV(ctx context.Context, userID, subjectID string) (*FileExport, error) {
	subject, semester, err := ownedSubject(ctx, s.subjects, s.semesters, userID, subjectID)
	if err != nil {
		return nil, err
	}
	snapshot, _, err := s.snapshots.Snapshot(ctx, *semester)
	if err != nil {
		return nil, err
	}
	asOf := today(s.now)
	past := make([]models.Occurrence, 0)
	for _, occ := range attendance.ForSubject(snapshot.Occurrences, subject.ID) {
		if !occ.Date.After(asOf) {
			past = append(past, occ)
		}
	}
	if len(past) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no past attendance records to export")
	}
	sort.SliceStable(past, func(i, j int) bool { return past[i].Date.Before(past[j].Date) })

	rows := make([][]string, 0, len(past))
	for _, occ := range past {
		personal := "not_marked"
		if occ.PersonalStatus != nil {
			personal = string(*occ.PersonalStatus)
		}
		rows = append(rows, []string{
			occ.Date.String(),
			occ.Date.Weekday().String(),
			string(occ.OfficialStatus),
			personal,
			formatHours(occ.DurationHours),
		})
	}
	renderer := s.renderers[models.ReportFormatCSV]
	body, err := renderer.Render(export.Dataset{Headers: subjectLogHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render subject log")
	}
	if s.metrics != nil {
		s.metrics.RecordExport(models.ReportFormatCSV)
	}
	return &FileExport{
		Filename:    fmt.Sprintf("%s_attendance.csv", sanitizeFilename(subject.Code)),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// ContentType returns the MIME type served for format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if format == models.ReportFormatICS {
		return "text/calendar"
	}
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.SignedToken, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// SemesterDataset builds one row per subject with personal and official hour totals as of asOf.
func SemesterDataset(snapshot *SemesterSnapshot, asOf models.Date) export.Dataset {
	rows := make([][]string, 0, len(snapshot.Subjects))
	for _, stats := range subjectStats(snapshot, asOf) {
		professor := ""
		if stats.ProfessorName != nil {
			professor = *stats.ProfessorName
		}
		personal, official := stats.Summary.Personal, stats.Summary.Official
		rows = append(rows, []string{
			stats.Code,
			stats.Name,
			professor,
			formatHours(personal.AttendedHours),
			formatHours(personal.TotalHours),
			formatPercentage(personal),
			formatHours(official.AttendedHours),
			formatHours(official.TotalHours),
			formatPercentage(official),
		})
	}
	return export.Dataset{Headers: semesterReportHeaders, Rows: rows}
}

func (s *ExportService) calendarEvents(ctx context.Context, snapshot *SemesterSnapshot, loc *time.Location) ([]export.CalendarEvent, error) {
	events := make([]export.CalendarEvent, 0, len(snapshot.Occurrences))
	for _, occ := range snapshot.Occurrences {
		if !occ.OfficialStatus.Held() {
			continue
		}
		minutes, err := attendance.ParseClock(occ.StartTime)
		if err != nil {
			return nil, fmt.Errorf("occurrence %s: %w", occ.ID, err)
		}
		start := time.Date(occ.Date.Year(), occ.Date.Month(), occ.Date.Day(), minutes/60, minutes%60, 0, 0, loc)
		events = append(events, export.CalendarEvent{
			UID:         fmt.Sprintf("class-%s-%s@attendance-tracker", occ.ID, strings.ReplaceAll(occ.StartTime, ":", "")),
			Summary:     fmt.Sprintf("%s %s", occ.SubjectCode, occ.SubjectName),
			Description: fmt.Sprintf("Official: %s", occ.OfficialStatus),
			Start:       start,
			End:         start.Add(time.Duration(occ.DurationHours * float64(time.Hour))),
		})
	}

	tests, err := s.tests.ListBySemester(ctx, snapshot.Semester.ID)
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}
	for _, test := range tests {
		if test.Status == models.TestCancelled {
			continue
		}
		events = append(events, export.CalendarEvent{
			UID:     fmt.Sprintf("test-%s@attendance-tracker", test.ID),
			Summary: fmt.Sprintf("Test: %s (%s)", test.Name, test.SubjectCode),
			Start:   test.TestDatetime,
			End:     test.TestDatetime.Add(time.Hour),
		})
	}

	assignments, err := s.assignments.ListBySemester(ctx, snapshot.Semester.ID)
	if err != nil {
		return nil, fmt.Errorf("load assignments: %w", err)
	}
	for _, assignment := range assignments {
		if assignment.Status == models.AssignmentCancelled {
			continue
		}
		events = append(events, export.CalendarEvent{
			UID:     fmt.Sprintf("assignment-%s@attendance-tracker", assignment.ID),
			Summary: fmt.Sprintf("Due: %s (%s)", assignment.Name, assignment.SubjectCode),
			Start:   assignment.Deadline,
			End:     assignment.Deadline,
		})
	}
	return events, nil
}

func (s *ExportService) location(name string) *time.Location {
	if name == "" {
		return s.cfg.Location
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("unknown report timezone, using default", zap.String("timezone", name), zap.Error(err))
		return s.cfg.Location
	}
	return loc
}

func (s *ExportService) buildFilename(job *models.ReportJob, semester models.Semester, extension string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", sanitizeFilename(describeSemester(semester)), job.ID, timestamp, extension)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

// formatPercentage renders one decimal, or N/A when nothing was counted.
func formatPercentage(ratio models.HoursRatio) string {
	if ratio.TotalHours <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(ratio.AttendedHours/ratio.TotalHours*100, 'f', 1, 64)
}
