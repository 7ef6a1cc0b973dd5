package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type stubCacheRepo struct {
	mu      sync.Mutex
	store   map[string][]byte
	markers map[string]bool
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) SetNX(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markers == nil {
		s.markers = make(map[string]bool)
	}
	if s.markers[key] {
		return false, nil
	}
	s.markers[key] = true
	return true, nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func (s *stubCacheRepo) keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

type fakeSemesterRepo struct {
	items   map[string]*models.Semester
	created []*models.Semester
}

func newFakeSemesterRepo(semesters ...models.Semester) *fakeSemesterRepo {
	repo := &fakeSemesterRepo{items: make(map[string]*models.Semester)}
	for i := range semesters {
		sem := semesters[i]
		repo.items[sem.ID] = &sem
	}
	return repo
}

func (f *fakeSemesterRepo) FindActive(_ context.Context, userID string) (*models.Semester, error) {
	for _, sem := range f.items {
		if sem.UserID == userID && !sem.IsArchived {
			copied := *sem
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSemesterRepo) ListArchived(_ context.Context, userID string) ([]models.Semester, error) {
	var out []models.Semester
	for _, sem := range f.items {
		if sem.UserID == userID && sem.IsArchived {
			out = append(out, *sem)
		}
	}
	return out, nil
}

func (f *fakeSemesterRepo) FindByID(_ context.Context, id string) (*models.Semester, error) {
	sem, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *sem
	return &copied, nil
}

func (f *fakeSemesterRepo) CreateActive(_ context.Context, semester *models.Semester) error {
	for _, sem := range f.items {
		if sem.UserID == semester.UserID {
			sem.IsArchived = true
		}
	}
	if semester.ID == "" {
		semester.ID = "sem-new"
	}
	copied := *semester
	f.items[semester.ID] = &copied
	f.created = append(f.created, semester)
	return nil
}

func (f *fakeSemesterRepo) Update(_ context.Context, semester *models.Semester) error {
	if _, ok := f.items[semester.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *semester
	f.items[semester.ID] = &copied
	return nil
}

func (f *fakeSemesterRepo) Archive(_ context.Context, id string) error {
	sem, ok := f.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	sem.IsArchived = true
	return nil
}

type fakeSubjectRepo struct {
	items map[string]*models.Subject
}

func newFakeSubjectRepo(subjects ...models.Subject) *fakeSubjectRepo {
	repo := &fakeSubjectRepo{items: make(map[string]*models.Subject)}
	for i := range subjects {
		subject := subjects[i]
		repo.items[subject.ID] = &subject
	}
	return repo
}

func (f *fakeSubjectRepo) ListBySemester(_ context.Context, semesterID string) ([]models.Subject, error) {
	var out []models.Subject
	for _, subject := range f.items {
		if subject.SemesterID == semesterID {
			out = append(out, *subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (f *fakeSubjectRepo) FindByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *subject
	return &copied, nil
}

func (f *fakeSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = "sub-new"
	}
	copied := *subject
	f.items[subject.ID] = &copied
	return nil
}

func (f *fakeSubjectRepo) Update(_ context.Context, subject *models.Subject) error {
	if _, ok := f.items[subject.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *subject
	f.items[subject.ID] = &copied
	return nil
}

func (f *fakeSubjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type fakeRecordRepo struct {
	subjects *fakeSubjectRepo
	items    []models.AttendanceRecord
	bulk     int
}

func (f *fakeRecordRepo) ListBySemester(_ context.Context, semesterID string) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, rec := range f.items {
		subject, ok := f.subjects.items[rec.SubjectID]
		if ok && subject.SemesterID == semesterID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordRepo) Upsert(_ context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	stored := f.put(*record)
	return &stored, nil
}

func (f *fakeRecordRepo) UpsertMany(_ context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	f.bulk++
	out := make([]models.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, f.put(rec))
	}
	return out, nil
}

func (f *fakeRecordRepo) put(record models.AttendanceRecord) models.AttendanceRecord {
	record.UpdatedAt = time.Now()
	for i, existing := range f.items {
		if existing.SubjectID == record.SubjectID && existing.Date.Equal(record.Date) {
			record.ID = existing.ID
			f.items[i] = record
			return record
		}
	}
	if record.ID == "" {
		record.ID = "rec-" + record.SubjectID + "-" + record.Date.String()
	}
	f.items = append(f.items, record)
	return record
}

type fakeTestRepo struct {
	subjects *fakeSubjectRepo
	items    map[string]*models.Test
}

func (f *fakeTestRepo) ListBySemester(_ context.Context, semesterID string) ([]models.Test, error) {
	var out []models.Test
	for _, test := range f.items {
		if subject, ok := f.subjects.items[test.SubjectID]; ok && subject.SemesterID == semesterID {
			out = append(out, *test)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestDatetime.Before(out[j].TestDatetime) })
	return out, nil
}

func (f *fakeTestRepo) FindByID(_ context.Context, id string) (*models.Test, error) {
	test, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *test
	return &copied, nil
}

func (f *fakeTestRepo) Create(_ context.Context, test *models.Test) error {
	if f.items == nil {
		f.items = make(map[string]*models.Test)
	}
	if test.ID == "" {
		test.ID = "test-new"
	}
	if test.Status == "" {
		test.Status = models.TestPending
	}
	copied := *test
	f.items[test.ID] = &copied
	return nil
}

func (f *fakeTestRepo) Update(_ context.Context, test *models.Test) error {
	if _, ok := f.items[test.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *test
	f.items[test.ID] = &copied
	return nil
}

func (f *fakeTestRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type fakeAssignmentRepo struct {
	subjects *fakeSubjectRepo
	items    map[string]*models.Assignment
}

func (f *fakeAssignmentRepo) ListBySemester(_ context.Context, semesterID string) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range f.items {
		if subject, ok := f.subjects.items[assignment.SubjectID]; ok && subject.SemesterID == semesterID {
			out = append(out, *assignment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (f *fakeAssignmentRepo) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	assignment, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *assignment
	return &copied, nil
}

func (f *fakeAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if f.items == nil {
		f.items = make(map[string]*models.Assignment)
	}
	if assignment.ID == "" {
		assignment.ID = "asg-new"
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentPending
	}
	copied := *assignment
	f.items[assignment.ID] = &copied
	return nil
}

func (f *fakeAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := f.items[assignment.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *assignment
	f.items[assignment.ID] = &copied
	return nil
}

func (f *fakeAssignmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

// testWorld wires the fakes around one user's January 2024 semester.
// ALG101 meets Monday 09:00 for 2h and Wednesday 14:00 for 1h; PHY110 meets Monday 11:00 for 1.5h.
type testWorld struct {
	semesters   *fakeSemesterRepo
	subjects    *fakeSubjectRepo
	records     *fakeRecordRepo
	tests       *fakeTestRepo
	assignments *fakeAssignmentRepo
	cacheRepo   *stubCacheRepo
	cache       *CacheService
}

const (
	worldUser     = "u1"
	worldSemester = "sem-1"
)

func newTestWorld() *testWorld {
	semesters := newFakeSemesterRepo(models.Semester{
		ID:        worldSemester,
		UserID:    worldUser,
		Name:      "Spring",
		Year:      "2024",
		StartDate: models.MustDate("2024-01-01"),
		EndDate:   models.MustDate("2024-01-31"),
	})
	subjects := newFakeSubjectRepo(
		models.Subject{
			ID: "alg", SemesterID: worldSemester, Code: "ALG101", Name: "Algebra", AttendanceGoal: 75,
			WeeklySlots: models.WeeklySlots{
				{DayOfWeek: "Monday", StartTime: "09:00", DurationHours: 2},
				{DayOfWeek: "Wednesday", StartTime: "14:00", DurationHours: 1},
			},
		},
		models.Subject{
			ID: "phy", SemesterID: worldSemester, Code: "PHY110", Name: "Physics", AttendanceGoal: 80,
			WeeklySlots: models.WeeklySlots{{DayOfWeek: "Monday", StartTime: "11:00", DurationHours: 1.5}},
		},
	)
	cacheRepo := &stubCacheRepo{}
	return &testWorld{
		semesters:   semesters,
		subjects:    subjects,
		records:     &fakeRecordRepo{subjects: subjects},
		tests:       &fakeTestRepo{subjects: subjects, items: make(map[string]*models.Test)},
		assignments: &fakeAssignmentRepo{subjects: subjects, items: make(map[string]*models.Assignment)},
		cacheRepo:   cacheRepo,
		cache:       NewCacheService(cacheRepo, nil, time.Minute, nil, true),
	}
}

func (w *testWorld) scheduleService(now time.Time) *ScheduleService {
	svc := NewScheduleService(w.semesters, w.subjects, w.records, w.cache, ScheduleServiceConfig{CacheTTL: time.Minute}, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func (w *testWorld) mark(subjectID, day string, official models.OfficialStatus, personal *models.PersonalStatus, hours float64) {
	w.records.put(models.AttendanceRecord{
		SubjectID:      subjectID,
		Date:           models.MustDate(day),
		DurationHours:  hours,
		OfficialStatus: official,
		PersonalStatus: personal,
	})
}

func personal(status models.PersonalStatus) *models.PersonalStatus {
	return &status
}

func strPtr(v string) *string { return &v }
