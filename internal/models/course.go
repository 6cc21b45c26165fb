package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CourseCatalogEntry is a course offered by the university, keyed by its unique code.
type CourseCatalogEntry struct {
	Code     string `db:"code" json:"code"`
	Title    string `db:"title" json:"title"`
	Credits  int    `db:"credits" json:"credits"`
	Level    string `db:"level" json:"level"`
	Semester string `db:"semester" json:"semester"`
	Program  string `db:"program" json:"program"`
}

// Program is an academic program together with its structured course mapping.
type Program struct {
	ID            string               `db:"id" json:"id"`
	Name          string               `db:"name" json:"name"`
	ShortName     string               `db:"short_name" json:"short_name"`
	CourseMapping ProgramCourseMapping `db:"course_mapping" json:"course_mapping,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}

// ProgramCourseMapping resolves level → semester → year → study mode → course codes.
// Keys are canonical: levels are digits, semesters are canonical labels, years are "YYYY/YYYY"
// or "all", modes are Regular/Weekend or "all".
type ProgramCourseMapping map[string]map[string]map[string]map[string][]string

// Empty reports whether the program has no structured mapping at all.
func (m ProgramCourseMapping) Empty() bool {
	return len(m) == 0
}

// Codes collects the course codes for a lookup context. An empty year takes every year bucket,
// an empty mode every mode bucket; "all" buckets always match.
func (m ProgramCourseMapping) Codes(level, semester, year string, mode StudyMode) []string {
	years := m[level][semester]
	if years == nil {
		return nil
	}
	var codes []string
	for _, yearKey := range sortedKeys(years) {
		if year != "" && yearKey != year && yearKey != AnyKey {
			continue
		}
		modes := years[yearKey]
		for _, modeKey := range sortedKeys(modes) {
			if mode != "" && modeKey != string(mode) && modeKey != AnyKey {
				continue
			}
			codes = append(codes, modes[modeKey]...)
		}
	}
	return codes
}

// UnmarshalJSON decodes and validates the mapping document, failing on any shape mismatch.
func (m *ProgramCourseMapping) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeProgramCourseMapping(data)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

// Scan implements sql.Scanner for JSONB columns.
func (m *ProgramCourseMapping) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("course mapping: unsupported column type %T", src)
	}
}

// Value implements driver.Valuer.
func (m ProgramCourseMapping) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(map[string]map[string]map[string]map[string][]string(m))
}

// DecodeProgramCourseMapping parses a mapping document and canonicalises its keys.
func DecodeProgramCourseMapping(data []byte) (ProgramCourseMapping, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var levels map[string]map[string]map[string]map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &levels); err != nil {
		return nil, fmt.Errorf("course mapping: malformed document: %w", err)
	}

	out := make(ProgramCourseMapping, len(levels))
	for rawLevel, semesters := range levels {
		level := NormalizeLevel(rawLevel)
		if level == "" {
			return nil, fmt.Errorf("course mapping: invalid level key %q", rawLevel)
		}
		if out[level] == nil {
			out[level] = make(map[string]map[string]map[string][]string, len(semesters))
		}
		for rawSemester, years := range semesters {
			semester := NormalizeSemester(rawSemester)
			if semester == "" {
				return nil, fmt.Errorf("course mapping: invalid semester key %q under level %s", rawSemester, level)
			}
			if out[level][semester] == nil {
				out[level][semester] = make(map[string]map[string][]string, len(years))
			}
			for rawYear, modes := range years {
				year, err := normalizeYearKey(rawYear)
				if err != nil {
					return nil, fmt.Errorf("course mapping: %w", err)
				}
				if out[level][semester][year] == nil {
					out[level][semester][year] = make(map[string][]string, len(modes))
				}
				for rawMode, rawCodes := range modes {
					mode, err := normalizeModeKey(rawMode)
					if err != nil {
						return nil, fmt.Errorf("course mapping: %w", err)
					}
					var codes []string
					if err := json.Unmarshal(rawCodes, &codes); err != nil {
						return nil, fmt.Errorf("course mapping: codes under %s/%s/%s/%s must be a list of strings: %w", level, semester, year, mode, err)
					}
					for i := range codes {
						codes[i] = strings.ToUpper(strings.TrimSpace(codes[i]))
					}
					out[level][semester][year][mode] = append(out[level][semester][year][mode], codes...)
				}
			}
		}
	}
	return out, nil
}

func normalizeYearKey(raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), AnyKey) {
		return AnyKey, nil
	}
	return NormalizeAcademicYear(raw)
}

func normalizeModeKey(raw string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(raw), AnyKey) {
		return AnyKey, nil
	}
	mode, ok := ParseStudyMode(raw)
	if !ok {
		return "", fmt.Errorf("invalid study mode key %q", raw)
	}
	return string(mode), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
