package models

import (
	"time"

	"github.com/lib/pq"
)

// CourseRegistration is a student's course selection for one academic period.
// At most one exists per (student, academic year, semester).
type CourseRegistration struct {
	ID           string         `db:"id" json:"id"`
	StudentID    string         `db:"student_id" json:"student_id"`
	AcademicYear string         `db:"academic_year" json:"academic_year"`
	Semester     int            `db:"semester" json:"semester"`
	CourseCodes  pq.StringArray `db:"course_codes" json:"course_codes"`
	TotalCredits int            `db:"total_credits" json:"total_credits"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
