package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/models"
)

func TestComputeGradeScenario(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)

	result := calc.ComputeGrade(models.ScoreOf(9), models.ScoreOf(18), models.ScoreOf(60))
	assert.Equal(t, 87.0, result.Total)
	assert.Equal(t, "A", result.Grade)
	assert.True(t, result.Graded)
}

func TestComputeGradeZeroVersusUnset(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)

	zero := calc.ComputeGrade(models.ScoreOf(0), models.ScoreOf(0), models.ScoreOf(0))
	assert.Equal(t, 0.0, zero.Total)
	assert.Equal(t, "F", zero.Grade)
	assert.True(t, zero.Graded)

	unset := calc.ComputeGrade(models.Score{}, models.Score{}, models.Score{})
	assert.Equal(t, "", unset.Grade)
	assert.False(t, unset.Graded)

	partial := calc.ComputeGrade(models.Score{}, models.ScoreOf(15), models.Score{})
	assert.Equal(t, 15.0, partial.Total)
	assert.Equal(t, "F", partial.Grade)
}

func TestComputeGradeClampsComponents(t *testing.T) {
	calc := NewGradeCalculator(GradeScale{})

	result := calc.ComputeGrade(models.ScoreOf(15), models.ScoreOf(-5), models.ScoreOf(90))
	assert.Equal(t, 80.0, result.Total)
	assert.Equal(t, "A", result.Grade)

	result = calc.ComputeGrade(models.ScoreOf(10), models.ScoreOf(20), models.ScoreOf(70))
	assert.Equal(t, 100.0, result.Total)
}

func TestComputeGradeCutoffs(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)
	cases := map[float64]string{
		80: "A", 79.99: "B+", 75: "B+", 70: "B", 65: "C+", 60: "C", 55: "D+", 50: "D", 45: "E", 44.5: "F",
	}
	for examScore, want := range cases {
		// spread the total over the components so each stays within its cap
		exam := examScore - 30
		got := calc.ComputeGrade(models.ScoreOf(10), models.ScoreOf(20), models.ScoreOf(exam))
		assert.Equal(t, want, got.Grade, "total %.2f", examScore)
	}
}

func TestComputeGradeMonotonic(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)
	scale := calc.Scale()

	prev := -1
	for exam := 0.0; exam <= MaxExam; exam += 0.5 {
		rank := scale.Rank(calc.ComputeGrade(models.ScoreOf(5), models.ScoreOf(10), models.ScoreOf(exam)).Grade)
		require.GreaterOrEqual(t, rank, prev, "exam %.1f", exam)
		prev = rank
	}

	prev = -1
	for assessment := 0.0; assessment <= MaxAssessment; assessment++ {
		rank := scale.Rank(calc.ComputeGrade(models.ScoreOf(assessment), models.ScoreOf(20), models.ScoreOf(40)).Grade)
		require.GreaterOrEqual(t, rank, prev)
		prev = rank
	}
}

func TestComputeGradeLetterUsesUnroundedTotal(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)

	result := calc.ComputeGrade(models.ScoreOf(9.996), models.ScoreOf(20), models.ScoreOf(50))
	assert.Equal(t, 80.0, result.Total)
	assert.Equal(t, "B+", result.Grade)

	result = calc.ComputeGrade(models.ScoreOf(4.996), models.ScoreOf(0), models.ScoreOf(40))
	assert.Equal(t, 45.0, result.Total)
	assert.Equal(t, "F", result.Grade)

	result = calc.ComputeGrade(models.ScoreOf(0.1), models.ScoreOf(0.2), models.ScoreOf(69.7))
	assert.Equal(t, "B", result.Grade, "float noise at the boundary still reaches the cutoff")
}

func TestComputeGradeRoundsTotal(t *testing.T) {
	calc := NewGradeCalculator(DefaultGradeScale)
	result := calc.ComputeGrade(models.ScoreOf(9.1), models.ScoreOf(18.2), models.ScoreOf(0))
	assert.Equal(t, 27.3, result.Total)
}

func TestParseGradeScale(t *testing.T) {
	scale, err := ParseGradeScale("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGradeScale, scale)

	scale, err = ParseGradeScale("F:0, A:70, B:60, C:50")
	require.NoError(t, err)
	assert.Equal(t, "F", scale.Fail)
	assert.Equal(t, "A", scale.Letter(70))
	assert.Equal(t, "C", scale.Letter(55))
	assert.Equal(t, "F", scale.Letter(49.9))
	assert.Equal(t, 3, scale.Rank("A"))
	assert.Equal(t, -1, scale.Rank("Z"))

	scale, err = ParseGradeScale("A:80,B+:75,B:70,C+:65,C:60,D+:55,D:50,E:45")
	require.NoError(t, err)
	assert.Equal(t, DefaultGradeScale, scale)

	for _, bad := range []string{"A80", "A:abc", "A:80,A:70,F:0", "A:80,B:80,F:0", "A:80,F:40", "F:0", "A:120,F:0"} {
		_, err := ParseGradeScale(bad)
		assert.Error(t, err, bad)
	}
}
