package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSemester(t *testing.T) {
	cases := map[string]string{
		"1":                SemesterFirst,
		"first":            SemesterFirst,
		"First Semester":   SemesterFirst,
		"SEMESTER 2":       SemesterSecond,
		"second semester":  SemesterSecond,
		"2nd":              SemesterSecond,
		"Trimester 1":      TrimesterFirst,
		"second trimester": TrimesterSecond,
		"3":                TrimesterThird,
		"Third":            TrimesterThird,
		"":                 "",
		"summer":           "",

		"2024/2025 Semester 1":  SemesterFirst,
		"2023/2024 trimester 2": TrimesterSecond,
		"1st sem":               SemesterFirst,
		"sem-2":                 SemesterSecond,
		"2024/2025":             "",
		"semester 12":           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeSemester(in), in)
	}
}

func TestSemesterLabelRoundTrip(t *testing.T) {
	assert.Equal(t, SemesterSecond, SemesterLabel(StudyModeRegular, 2))
	assert.Equal(t, TrimesterSecond, SemesterLabel(StudyModeWeekend, 2))
	assert.Equal(t, 3, SemesterNumber(SemesterLabel(StudyModeWeekend, 3)))
}

func TestNormalizeAcademicYear(t *testing.T) {
	year, err := NormalizeAcademicYear("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, "2024/2025", year)

	year, err = NormalizeAcademicYear(" 2024 / 2025 ")
	require.NoError(t, err)
	assert.Equal(t, "2024/2025", year)

	_, err = NormalizeAcademicYear("2024/2026")
	assert.Error(t, err)
	_, err = NormalizeAcademicYear("24/25")
	assert.Error(t, err)
}

func TestStudyModePeriods(t *testing.T) {
	mode, ok := ParseStudyMode(" weekend ")
	require.True(t, ok)
	assert.Equal(t, StudyModeWeekend, mode)
	assert.True(t, mode.ValidPeriod(3))
	assert.False(t, StudyModeRegular.ValidPeriod(3))
	assert.False(t, StudyModeRegular.ValidPeriod(0))
	assert.Equal(t, "100", NormalizeLevel("Level 100"))
}

func TestDecodeProgramCourseMappingCanonicalisesKeys(t *testing.T) {
	doc := []byte(`{"Level 200": {"1": {"all": {"regular": ["agm251", "AGM253"]}, "2024-2025": {"Weekend": ["AGM255"]}}}}`)
	mapping, err := DecodeProgramCourseMapping(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"AGM251", "AGM253"}, mapping["200"][SemesterFirst][AnyKey]["Regular"])
	assert.Equal(t, []string{"AGM255"}, mapping["200"][SemesterFirst]["2024/2025"]["Weekend"])

	assert.Equal(t, []string{"AGM251", "AGM253"}, mapping.Codes("200", SemesterFirst, "2030/2031", StudyModeRegular))
	assert.Equal(t, []string{"AGM255", "AGM251", "AGM253"}, mapping.Codes("200", SemesterFirst, "2024/2025", ""))
	assert.Nil(t, mapping.Codes("300", SemesterFirst, "", ""))
}

func TestDecodeProgramCourseMappingRejectsBadShapes(t *testing.T) {
	bad := []string{
		`{"200": ["AGM251"]}`,
		`{"200": {"summer": {"all": {"Regular": ["AGM251"]}}}}`,
		`{"200": {"1": {"2024": {"Regular": ["AGM251"]}}}}`,
		`{"200": {"1": {"all": {"Evening": ["AGM251"]}}}}`,
		`{"200": {"1": {"all": {"Regular": [251]}}}}`,
	}
	for _, doc := range bad {
		_, err := DecodeProgramCourseMapping([]byte(doc))
		assert.Error(t, err, doc)
	}

	mapping, err := DecodeProgramCourseMapping([]byte("null"))
	require.NoError(t, err)
	assert.True(t, mapping.Empty())
}

func TestProgramMappingSurvivesJSONRoundTrip(t *testing.T) {
	program := Program{ID: "prog1", Name: "Agriculture", CourseMapping: ProgramCourseMapping{
		"200": {SemesterFirst: {AnyKey: {"Regular": {"AGM251"}}}},
	}}
	raw, err := json.Marshal(program)
	require.NoError(t, err)

	var decoded Program
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, program.CourseMapping, decoded.CourseMapping)
}

func TestScoreJSON(t *testing.T) {
	var payload struct {
		A Score `json:"a"`
		B Score `json:"b"`
		C Score `json:"c"`
		D Score `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 9, "b": "18", "c": "", "d": null}`), &payload))
	assert.Equal(t, ScoreOf(9), payload.A)
	assert.Equal(t, ScoreOf(18), payload.B)
	assert.False(t, payload.C.Set)
	assert.False(t, payload.D.Set)

	require.Error(t, json.Unmarshal([]byte(`{"a": "nine"}`), &payload))

	out, err := json.Marshal(payload.C)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestSubmissionTransitions(t *testing.T) {
	assert.True(t, SubmissionDraft.CanTransitionTo(SubmissionPendingApproval))
	assert.True(t, SubmissionApproved.CanTransitionTo(SubmissionPublished))
	assert.False(t, SubmissionDraft.CanTransitionTo(SubmissionApproved))
	assert.False(t, SubmissionPublished.CanTransitionTo(SubmissionDraft))
	assert.False(t, SubmissionApproved.CanTransitionTo(SubmissionPendingApproval))
}
