package models

import (
	"strings"
	"time"
	"unicode"
)

// StudyMode is the enrollment track of a student.
type StudyMode string

const (
	StudyModeRegular StudyMode = "Regular"
	StudyModeWeekend StudyMode = "Weekend"
)

// ParseStudyMode matches a study mode case-insensitively.
func ParseStudyMode(raw string) (StudyMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "regular":
		return StudyModeRegular, true
	case "weekend":
		return StudyModeWeekend, true
	}
	return "", false
}

// PeriodsPerYear is 2 semesters for Regular students and 3 trimesters for Weekend students.
func (m StudyMode) PeriodsPerYear() int {
	if m == StudyModeWeekend {
		return 3
	}
	return 2
}

// InstallmentCount is the number of partial payments in the fee structure of the mode.
func (m StudyMode) InstallmentCount() int {
	return m.PeriodsPerYear()
}

// ValidPeriod reports whether n is a semester/trimester number of the mode.
func (m StudyMode) ValidPeriod(n int) bool {
	return n >= 1 && n <= m.PeriodsPerYear()
}

// Levels enumerates the undergraduate levels.
var Levels = []string{"100", "200", "300", "400"}

// NormalizeLevel reduces inputs such as "Level 100" or "L200" to their digits.
func NormalizeLevel(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidLevel reports whether level (already normalised) is a known level.
func ValidLevel(level string) bool {
	for _, l := range Levels {
		if l == level {
			return true
		}
	}
	return false
}

// Student represents an enrolled student.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number"`
	FullName           string    `db:"full_name" json:"full_name"`
	ProgramID          string    `db:"program_id" json:"program_id"`
	Level              string    `db:"level" json:"level"`
	StudyMode          StudyMode `db:"study_mode" json:"study_mode"`
	LevelUpdatedYear   *string   `db:"level_updated_year" json:"level_updated_year,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter scopes student listings.
type StudentFilter struct {
	ProgramID string
	Level     string
	StudyMode StudyMode
	Search    string
	Page      int
	PageSize  int
}
