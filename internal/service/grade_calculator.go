package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/unireg-api/internal/models"
)

// Component caps.
const (
	MaxAssessment = 10.0
	MaxMidSem     = 20.0
	MaxExam       = 70.0
)

// cutoffEpsilon absorbs float noise such as 0.1+0.2 landing just under a cutoff.
const cutoffEpsilon = 1e-9

// GradeCutoff assigns Grade to totals at or above Min.
type GradeCutoff struct {
	Grade string  `json:"grade"`
	Min   float64 `json:"min"`
}

// GradeScale is an ordered list of cutoffs, highest first. Totals below every cutoff receive Fail.
type GradeScale struct {
	Cutoffs []GradeCutoff `json:"cutoffs"`
	Fail    string        `json:"fail"`
}

// DefaultGradeScale is the university's letter grade scale.
var DefaultGradeScale = GradeScale{
	Cutoffs: []GradeCutoff{
		{Grade: "A", Min: 80},
		{Grade: "B+", Min: 75},
		{Grade: "B", Min: 70},
		{Grade: "C+", Min: 65},
		{Grade: "C", Min: 60},
		{Grade: "D+", Min: 55},
		{Grade: "D", Min: 50},
		{Grade: "E", Min: 45},
	},
	Fail: "F",
}

// ParseGradeScale reads "A:80,B+:75,...,E:45". An entry with minimum 0 names the failing grade;
// without one, totals below every cutoff receive F. An empty string yields DefaultGradeScale.
func ParseGradeScale(raw string) (GradeScale, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultGradeScale, nil
	}

	var cutoffs []GradeCutoff
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		grade, minRaw, ok := strings.Cut(strings.TrimSpace(part), ":")
		grade = strings.TrimSpace(grade)
		if !ok || grade == "" {
			return GradeScale{}, fmt.Errorf("grade scale entry %q must look like A:80", part)
		}
		min, err := strconv.ParseFloat(strings.TrimSpace(minRaw), 64)
		if err != nil || min < 0 || min > 100 {
			return GradeScale{}, fmt.Errorf("grade scale entry %q needs a minimum between 0 and 100", part)
		}
		if seen[grade] {
			return GradeScale{}, fmt.Errorf("grade %q appears twice in grade scale", grade)
		}
		seen[grade] = true
		cutoffs = append(cutoffs, GradeCutoff{Grade: grade, Min: min})
	}

	sort.SliceStable(cutoffs, func(i, j int) bool { return cutoffs[i].Min > cutoffs[j].Min })
	for i := 1; i < len(cutoffs); i++ {
		if cutoffs[i].Min == cutoffs[i-1].Min {
			return GradeScale{}, fmt.Errorf("grades %s and %s share minimum %.2f", cutoffs[i-1].Grade, cutoffs[i].Grade, cutoffs[i].Min)
		}
	}
	last := cutoffs[len(cutoffs)-1]
	if last.Min != 0 {
		if seen[DefaultGradeScale.Fail] {
			return GradeScale{}, fmt.Errorf("grade %s is reserved for totals below every cutoff", DefaultGradeScale.Fail)
		}
		return GradeScale{Cutoffs: cutoffs, Fail: DefaultGradeScale.Fail}, nil
	}
	if len(cutoffs) < 2 {
		return GradeScale{}, fmt.Errorf("grade scale needs at least one passing grade")
	}
	return GradeScale{Cutoffs: cutoffs[:len(cutoffs)-1], Fail: last.Grade}, nil
}

// Letter maps a total to its letter grade.
func (g GradeScale) Letter(total float64) string {
	for _, c := range g.Cutoffs {
		if total >= c.Min {
			return c.Grade
		}
	}
	return g.Fail
}

// Rank orders grades: the failing grade is 0 and each higher cutoff adds one. Unknown grades rank -1.
func (g GradeScale) Rank(grade string) int {
	if grade == g.Fail {
		return 0
	}
	for i, c := range g.Cutoffs {
		if c.Grade == grade {
			return len(g.Cutoffs) - i
		}
	}
	return -1
}

// GradeCalculator computes component totals and letter grades.
type GradeCalculator struct {
	scale GradeScale
}

// NewGradeCalculator builds a calculator; a scale without cutoffs falls back to DefaultGradeScale.
func NewGradeCalculator(scale GradeScale) *GradeCalculator {
	if len(scale.Cutoffs) == 0 {
		scale = DefaultGradeScale
	}
	return &GradeCalculator{scale: scale}
}

// Scale returns the active grade scale.
func (c *GradeCalculator) Scale() GradeScale {
	return c.scale
}

// ComputeGrade clamps each component to its range, sums them and assigns a letter grade.
// When all three components are unset the result is ungraded (empty grade); otherwise unset
// components count as zero.
func (c *GradeCalculator) ComputeGrade(assessment, midsem, exam models.Score) models.GradeResult {
	if !assessment.Set && !midsem.Set && !exam.Set {
		return models.GradeResult{}
	}
	total := clampScore(assessment, MaxAssessment) + clampScore(midsem, MaxMidSem) + clampScore(exam, MaxExam)
	// The letter comes from the exact sum; only the reported total is rounded to cents.
	return models.GradeResult{Total: math.Round(total*100) / 100, Grade: c.scale.Letter(total + cutoffEpsilon), Graded: true}
}

func clampScore(s models.Score, max float64) float64 {
	if !s.Set || math.IsNaN(s.Points) || s.Points < 0 {
		return 0
	}
	if s.Points > max {
		return max
	}
	return s.Points
}
