package models

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Score is a grade component that may be unset. Unset differs from an explicit zero.
type Score struct {
	Points float64
	Set    bool
}

// ScoreOf returns a set score.
func ScoreOf(v float64) Score {
	return Score{Points: v, Set: true}
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null. The last two leave the score unset.
func (s *Score) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*s = Score{}
		return nil
	}
	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = Score{}
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("score %q is not a number", raw)
		}
		*s = ScoreOf(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("score must be a number: %w", err)
	}
	*s = ScoreOf(v)
	return nil
}

// MarshalJSON writes null for unset scores.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Points)
}

// Scan implements sql.Scanner for nullable numeric columns.
func (s *Score) Scan(src interface{}) error {
	var n sql.NullFloat64
	if err := n.Scan(src); err != nil {
		return err
	}
	*s = Score{Points: n.Float64, Set: n.Valid}
	return nil
}

// Value implements driver.Valuer.
func (s Score) Value() (driver.Value, error) {
	if !s.Set {
		return nil, nil
	}
	return s.Points, nil
}

// GradeResult is the outcome of grading one student's components.
type GradeResult struct {
	Total  float64 `json:"total"`
	Grade  string  `json:"grade"`
	Graded bool    `json:"graded"`
}

// SubmissionStatus is the workflow state of a grade submission.
type SubmissionStatus string

const (
	SubmissionDraft           SubmissionStatus = "draft"
	SubmissionPendingApproval SubmissionStatus = "pending_approval"
	SubmissionApproved        SubmissionStatus = "approved"
	SubmissionPublished       SubmissionStatus = "published"
)

var submissionTransitions = map[SubmissionStatus]SubmissionStatus{
	SubmissionDraft:           SubmissionPendingApproval,
	SubmissionPendingApproval: SubmissionApproved,
	SubmissionApproved:        SubmissionPublished,
}

// CanTransitionTo reports whether next directly follows s. Transitions never go backwards.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	return submissionTransitions[s] == next
}

// GradeSubmission is a lecturer's batch of scores for one course and period.
type GradeSubmission struct {
	ID           string           `db:"id" json:"id"`
	CourseCode   string           `db:"course_code" json:"course_code"`
	LecturerID   string           `db:"lecturer_id" json:"lecturer_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     int              `db:"semester" json:"semester"`
	Status       SubmissionStatus `db:"status" json:"status"`
	SubmittedAt  *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	ApprovedAt   *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	ApprovedBy   *string          `db:"approved_by" json:"approved_by,omitempty"`
	PublishedAt  *time.Time       `db:"published_at" json:"published_at,omitempty"`
	PublishedBy  *string          `db:"published_by" json:"published_by,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	Entries      []GradeEntry     `db:"-" json:"entries,omitempty"`
}

// GradeEntry holds one student's component scores and computed grade.
type GradeEntry struct {
	ID           string  `db:"id" json:"id"`
	SubmissionID string  `db:"submission_id" json:"submission_id"`
	StudentID    string  `db:"student_id" json:"student_id"`
	Assessment   Score   `db:"assessment" json:"assessment"`
	MidSem       Score   `db:"midsem" json:"midsem"`
	Exam         Score   `db:"exam" json:"exam"`
	Total        float64 `db:"total" json:"total"`
	Grade        string  `db:"grade" json:"grade"`
}

// GradeSubmissionFilter scopes submission listings.
type GradeSubmissionFilter struct {
	CourseCode   string
	AcademicYear string
	Semester     int
	Status       SubmissionStatus
	LecturerID   string
}

// PublishedGrade is a student's final course result after publication.
type PublishedGrade struct {
	SubmissionID string    `db:"submission_id" json:"submission_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseCode   string    `db:"course_code" json:"course_code"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Total        float64   `db:"total" json:"total"`
	Grade        string    `db:"grade" json:"grade"`
	PublishedAt  time.Time `db:"published_at" json:"published_at"`
}
