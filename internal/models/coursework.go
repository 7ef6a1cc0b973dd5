package models

import "time"

// TestStatus is the lifecycle state of a test.
type TestStatus string

const (
	TestPending   TestStatus = "Pending"
	TestCompleted TestStatus = "Completed"
	TestCancelled TestStatus = "Cancelled"
)

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "Pending"
	AssignmentSubmitted AssignmentStatus = "Submitted"
	AssignmentCancelled AssignmentStatus = "Cancelled"
)

// Test is a scheduled examination for a subject.
type Test struct {
	ID           string     `db:"id" json:"id"`
	SubjectID    string     `db:"subject_id" json:"subject_id"`
	SubjectCode  string     `db:"subject_code" json:"subject_code"`
	SubjectName  string     `db:"subject_name" json:"subject_name"`
	Name         string     `db:"name" json:"name"`
	TestDatetime time.Time  `db:"test_datetime" json:"test_datetime"`
	Status       TestStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// TestRequest is the create payload for tests.
type TestRequest struct {
	SubjectID    string    `json:"subject_id" validate:"required"`
	Name         string    `json:"name" validate:"required,max=160"`
	TestDatetime time.Time `json:"test_datetime" validate:"required"`
	Status       string    `json:"status" validate:"omitempty,test_status"`
}

// UpdateTestRequest changes a test. Omitted fields keep their stored values,
// so a status change can be sent on its own.
type UpdateTestRequest struct {
	SubjectID    *string    `json:"subject_id,omitempty" validate:"omitempty,min=1"`
	Name         *string    `json:"name,omitempty" validate:"omitempty,max=160"`
	TestDatetime *time.Time `json:"test_datetime,omitempty"`
	Status       string     `json:"status,omitempty" validate:"omitempty,test_status"`
}

// Assignment is a deliverable with a deadline for a subject.
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	SubjectID   string           `db:"subject_id" json:"subject_id"`
	SubjectCode string           `db:"subject_code" json:"subject_code"`
	SubjectName string           `db:"subject_name" json:"subject_name"`
	Name        string           `db:"name" json:"name"`
	Deadline    time.Time        `db:"deadline" json:"deadline"`
	Status      AssignmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentRequest is the create payload for assignments.
type AssignmentRequest struct {
	SubjectID string    `json:"subject_id" validate:"required"`
	Name      string    `json:"name" validate:"required,max=160"`
	Deadline  time.Time `json:"deadline" validate:"required"`
	Status    string    `json:"status" validate:"omitempty,assignment_status"`
}

// UpdateAssignmentRequest changes an assignment. Omitted fields keep their stored values.
type UpdateAssignmentRequest struct {
	SubjectID *string    `json:"subject_id,omitempty" validate:"omitempty,min=1"`
	Name      *string    `json:"name,omitempty" validate:"omitempty,max=160"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Status    string     `json:"status,omitempty" validate:"omitempty,assignment_status"`
}

// UpcomingKind distinguishes upcoming dashboard items.
type UpcomingKind string

const (
	UpcomingTest       UpcomingKind = "test"
	UpcomingAssignment UpcomingKind = "assignment"
)

// UpcomingItem is a pending test or assignment due soon.
type UpcomingItem struct {
	Kind        UpcomingKind `json:"kind"`
	ID          string       `json:"id"`
	SubjectID   string       `json:"subject_id"`
	SubjectCode string       `json:"subject_code"`
	Name        string       `json:"name"`
	DueAt       time.Time    `json:"due_at"`
}
