package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/models"
)

type stubPaymentSum struct {
	sums  map[string]float64
	err   error
	calls int
}

func (s *stubPaymentSum) SumForPeriod(ctx context.Context, studentID, academicYear string, semester int) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.sums[studentID], nil
}

type stubFeeLookup map[string]models.FeeStructure

func (s stubFeeLookup) GetFeeStructure(level string, mode models.StudyMode) *models.FeeStructure {
	fee, ok := s[level+"/"+string(mode)]
	if !ok {
		return nil
	}
	return &fee
}

func defaultFees() stubFeeLookup {
	return stubFeeLookup{
		"100/Regular": {Level: "100", StudyMode: models.StudyModeRegular, Total: 4310},
		"200/Weekend": {Level: "200", StudyMode: models.StudyModeWeekend, Total: 4320},
	}
}

func newEligibilityFixture(sums map[string]float64) (*EligibilityService, *stubPaymentSum) {
	payments := &stubPaymentSum{sums: sums}
	metrics := NewMetricsService()
	return NewEligibilityService(newStudentFixture(), payments, defaultFees(), 0.7, metrics, nil), payments
}

func TestCanRegisterAllowsPaymentAboveThreshold(t *testing.T) {
	svc, _ := newEligibilityFixture(map[string]float64{"stu-1": 3020})

	decision := svc.CanRegister(context.Background(), "stu-1", "2024-2025", 1)
	assert.True(t, decision.CanRegister)
	assert.Nil(t, decision.Reason)
	assert.Equal(t, "2024/2025", decision.AcademicYear)
	assert.Equal(t, 4310.0, decision.FeeTotal)
	assert.Equal(t, 3020.0, decision.AmountPaid)
	assert.Equal(t, 3017.0, decision.RequiredAmount)
	assert.Equal(t, 0.7007, decision.PaidRatio)
}

func TestCanRegisterDeniesPaymentBelowThreshold(t *testing.T) {
	svc, _ := newEligibilityFixture(map[string]float64{"stu-1": 3000})

	decision := svc.CanRegister(context.Background(), "stu-1", "2024/2025", 1)
	assert.False(t, decision.CanRegister)
	require.NotNil(t, decision.Reason)
	assert.Equal(t, "payments of 3000.00 are below the required 3017.00", *decision.Reason)

	snapshot := svc.metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.EligibilityDenied)
}

func TestCanRegisterExactThresholdIsAllowed(t *testing.T) {
	svc, _ := newEligibilityFixture(map[string]float64{"stu-1": 3017})

	decision := svc.CanRegister(context.Background(), "stu-1", "2024/2025", 2)
	assert.True(t, decision.CanRegister)

	svc, _ = newEligibilityFixture(map[string]float64{"stu-1": 3016.99})
	decision = svc.CanRegister(context.Background(), "stu-1", "2024/2025", 2)
	assert.False(t, decision.CanRegister)
}

func TestCanRegisterIsMonotonicInAmountPaid(t *testing.T) {
	previous := false
	for paid := 0.0; paid <= 4310; paid += 107.75 {
		svc, _ := newEligibilityFixture(map[string]float64{"stu-1": paid})
		decision := svc.CanRegister(context.Background(), "stu-1", "2024/2025", 1)
		if previous {
			assert.True(t, decision.CanRegister, "paying %.2f must stay eligible", paid)
		}
		previous = decision.CanRegister
	}
	assert.True(t, previous)
}

func TestCanRegisterDenialReasons(t *testing.T) {
	cases := []struct {
		name      string
		studentID string
		year      string
		semester  int
		payments  *stubPaymentSum
		reason    string
	}{
		{name: "empty student id", studentID: "  ", year: "2024/2025", semester: 1, reason: ReasonStudentIDRequired},
		{name: "bad academic year", studentID: "stu-1", year: "2024", semester: 1, reason: ReasonInvalidAcademicYear},
		{name: "unknown student", studentID: "ghost", year: "2024/2025", semester: 1, reason: ReasonStudentNotFound},
		{name: "third semester for regular student", studentID: "stu-1", year: "2024/2025", semester: 3, reason: ReasonInvalidSemester},
		{name: "payments unavailable", studentID: "stu-1", year: "2024/2025", semester: 1, payments: &stubPaymentSum{err: errors.New("timeout")}, reason: ReasonPaymentsUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payments := tc.payments
			if payments == nil {
				payments = &stubPaymentSum{}
			}
			svc := NewEligibilityService(newStudentFixture(), payments, defaultFees(), 0.7, nil, nil)
			decision := svc.CanRegister(context.Background(), tc.studentID, tc.year, tc.semester)
			assert.False(t, decision.CanRegister)
			require.NotNil(t, decision.Reason)
			assert.Equal(t, tc.reason, *decision.Reason)
		})
	}
}

func TestCanRegisterMissingFeeStructure(t *testing.T) {
	payments := &stubPaymentSum{sums: map[string]float64{"stu-1": 5000}}
	svc := NewEligibilityService(newStudentFixture(), payments, stubFeeLookup{}, 0.7, nil, nil)

	decision := svc.CanRegister(context.Background(), "stu-1", "2024/2025", 1)
	assert.False(t, decision.CanRegister)
	require.NotNil(t, decision.Reason)
	assert.Equal(t, ReasonFeeStructureMissing, *decision.Reason)
	assert.Zero(t, payments.calls, "payments are not read without a fee structure")
}

func TestCanRegisterStudentStoreFailure(t *testing.T) {
	students := &mockStudentRepo{findErr: errors.New("connection refused")}
	svc := NewEligibilityService(students, &stubPaymentSum{}, defaultFees(), 0.7, nil, nil)

	decision := svc.CanRegister(context.Background(), "stu-1", "2024/2025", 1)
	assert.False(t, decision.CanRegister)
	require.NotNil(t, decision.Reason)
	assert.Equal(t, ReasonStudentUnavailable, *decision.Reason)
}

func TestCanRegisterWeekendTrimester(t *testing.T) {
	svc, _ := newEligibilityFixture(map[string]float64{"stu-2": 3024})

	decision := svc.CanRegister(context.Background(), "stu-2", "2024/2025", 3)
	assert.True(t, decision.CanRegister)
	assert.Equal(t, 3024.0, decision.RequiredAmount)
}

func TestNewEligibilityServiceThresholdBounds(t *testing.T) {
	assert.Equal(t, 0.7, NewEligibilityService(nil, nil, nil, 0, nil, nil).Threshold())
	assert.Equal(t, 0.7, NewEligibilityService(nil, nil, nil, 1.5, nil, nil).Threshold())
	assert.Equal(t, 1.0, NewEligibilityService(nil, nil, nil, 1, nil, nil).Threshold())
}

func TestRequiredCents(t *testing.T) {
	assert.Equal(t, int64(301700), RequiredCents(431000, 0.7))
	assert.Equal(t, int64(302400), RequiredCents(432000, 0.7))
	assert.Equal(t, int64(1), RequiredCents(1, 0.5))
	assert.Equal(t, int64(431000), RequiredCents(431000, 1))
}
