package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical semester/trimester labels.
const (
	SemesterFirst   = "First Semester"
	SemesterSecond  = "Second Semester"
	TrimesterFirst  = "First Trimester"
	TrimesterSecond = "Second Trimester"
	TrimesterThird  = "Third Trimester"
)

// AnyKey is the wildcard bucket in program course mappings.
const AnyKey = "all"

var (
	// "semester 2", "tri-3", "sem#1"
	labelledOrdinalPattern = regexp.MustCompile(`(?:semester|trimester|sem|tri)\s*[-_#:]?\s*([1-3])(?:$|\D)`)
	// a lone "2" or "2nd", never a digit inside a longer number such as a year
	bareOrdinalPattern = regexp.MustCompile(`(?:^|\D)([1-3])(?:st|nd|rd)?(?:$|\D)`)
)

// NormalizeSemester maps inputs like "1", "first", "First Semester" or "trimester 3" to a canonical
// label. It returns "" when no ordinal can be recognised.
func NormalizeSemester(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	ordinal := 0
	switch {
	case strings.Contains(s, "first"):
		ordinal = 1
	case strings.Contains(s, "second"):
		ordinal = 2
	case strings.Contains(s, "third"):
		ordinal = 3
	default:
		m := labelledOrdinalPattern.FindStringSubmatch(s)
		if m == nil {
			m = bareOrdinalPattern.FindStringSubmatch(s)
		}
		if m != nil {
			ordinal = int(m[1][0] - '0')
		}
	}

	trimester := strings.Contains(s, "trimester") || ordinal == 3
	switch {
	case ordinal == 1 && trimester:
		return TrimesterFirst
	case ordinal == 2 && trimester:
		return TrimesterSecond
	case ordinal == 3:
		return TrimesterThird
	case ordinal == 1:
		return SemesterFirst
	case ordinal == 2:
		return SemesterSecond
	}
	return ""
}

// SemesterNumber returns the ordinal of a canonical label, or 0.
func SemesterNumber(label string) int {
	switch label {
	case SemesterFirst, TrimesterFirst:
		return 1
	case SemesterSecond, TrimesterSecond:
		return 2
	case TrimesterThird:
		return 3
	}
	return 0
}

// SemesterLabel returns the canonical label for a period number within a study mode.
func SemesterLabel(mode StudyMode, n int) string {
	if mode == StudyModeWeekend {
		return NormalizeSemester(fmt.Sprintf("trimester %d", n))
	}
	return NormalizeSemester(strconv.Itoa(n))
}

var academicYearPattern = regexp.MustCompile(`^(\d{4})\s*[/-]\s*(\d{4})$`)

// NormalizeAcademicYear accepts "YYYY/YYYY" or "YYYY-YYYY" and returns "YYYY/YYYY".
func NormalizeAcademicYear(raw string) (string, error) {
	m := academicYearPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("academic year %q must look like 2024/2025", raw)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if end != start+1 {
		return "", fmt.Errorf("academic year %q must span consecutive years", raw)
	}
	return m[1] + "/" + m[2], nil
}

// AcademicPeriod is a (year, semester/trimester) registration cycle.
type AcademicPeriod struct {
	ID           string    `db:"id" json:"id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     int       `db:"semester" json:"semester"`
	Label        string    `db:"label" json:"label"`
	IsCurrent    bool      `db:"is_current" json:"is_current"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
