package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/repository"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	listTotal  int
	findErr    error
	createErr  error
	updated    []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	student.ID = "generated"
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) UpdateLevel(ctx context.Context, id, level, academicYear string) (bool, error) {
	s, ok := m.students[id]
	if !ok {
		return false, nil
	}
	if s.LevelUpdatedYear != nil && *s.LevelUpdatedYear == academicYear {
		return false, nil
	}
	s.Level = level
	s.LevelUpdatedYear = &academicYear
	m.students[id] = s
	m.updated = append(m.updated, id)
	return true, nil
}

type mockProgramReader struct {
	programs map[string]models.Program
}

func (m *mockProgramReader) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if p, ok := m.programs[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

type mockCurrentPeriod struct {
	period *models.AcademicPeriod
	err    error
}

func (m *mockCurrentPeriod) Current(ctx context.Context) (*models.AcademicPeriod, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.period == nil {
		return nil, sql.ErrNoRows
	}
	return m.period, nil
}

func newStudentFixture() *mockStudentRepo {
	return &mockStudentRepo{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", RegistrationNumber: "UG0001", FullName: "Ama Mensah", ProgramID: "prog1", Level: "100", StudyMode: models.StudyModeRegular},
		"stu-2": {ID: "stu-2", RegistrationNumber: "UG0002", FullName: "Kofi Boateng", ProgramID: "prog1", Level: "200", StudyMode: models.StudyModeWeekend},
	}}
}

func TestStudentServiceList(t *testing.T) {
	repo := newStudentFixture()
	repo.listTotal = 2
	svc := NewStudentService(repo, &mockProgramReader{}, &mockCurrentPeriod{}, nil, nil)

	students, pagination, err := svc.List(context.Background(), dto.StudentListQuery{Level: "Level 200", StudyMode: "weekend", PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, "200", repo.lastFilter.Level)
	assert.Equal(t, models.StudyModeWeekend, repo.lastFilter.StudyMode)

	_, _, err = svc.List(context.Background(), dto.StudentListQuery{StudyMode: "evening"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentServiceGet(t *testing.T) {
	svc := NewStudentService(newStudentFixture(), &mockProgramReader{}, &mockCurrentPeriod{}, nil, nil)

	student, err := svc.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ama Mensah", student.FullName)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	failing := &mockStudentRepo{findErr: errors.New("connection reset")}
	_, err = NewStudentService(failing, nil, nil, nil, nil).Get(context.Background(), "stu-1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	programs := &mockProgramReader{programs: map[string]models.Program{"prog1": {ID: "prog1", Name: "BSc Agriculture"}}}
	svc := NewStudentService(repo, programs, &mockCurrentPeriod{}, nil, nil)

	student, err := svc.Create(context.Background(), dto.CreateStudentRequest{
		RegistrationNumber: " UG0100 ",
		FullName:           "Yaw Asante",
		ProgramID:          "prog1",
		Level:              "L100",
		StudyMode:          "REGULAR",
	})
	require.NoError(t, err)
	assert.Equal(t, "generated", student.ID)
	assert.Equal(t, "UG0100", student.RegistrationNumber)
	assert.Equal(t, "100", student.Level)
	assert.Equal(t, models.StudyModeRegular, student.StudyMode)

	_, err = svc.Create(context.Background(), dto.CreateStudentRequest{RegistrationNumber: "UG1", FullName: "X", ProgramID: "prog1", Level: "500", StudyMode: "Regular"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), dto.CreateStudentRequest{RegistrationNumber: "UG1", FullName: "X", ProgramID: "nope", Level: "100", StudyMode: "Regular"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.createErr = repository.ErrDuplicate
	_, err = svc.Create(context.Background(), dto.CreateStudentRequest{RegistrationNumber: "UG0100", FullName: "X", ProgramID: "prog1", Level: "100", StudyMode: "Regular"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestStudentServiceUpdateLevelOncePerYear(t *testing.T) {
	repo := newStudentFixture()
	periods := &mockCurrentPeriod{period: &models.AcademicPeriod{AcademicYear: "2024/2025", Semester: 1, IsCurrent: true}}
	svc := NewStudentService(repo, &mockProgramReader{}, periods, nil, nil)

	student, err := svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "200"})
	require.NoError(t, err)
	assert.Equal(t, "200", student.Level)
	require.NotNil(t, student.LevelUpdatedYear)
	assert.Equal(t, "2024/2025", *student.LevelUpdatedYear)

	_, err = svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "300", AcademicYear: "2024-2025"})
	assert.ErrorIs(t, err, appErrors.ErrLevelAlreadyAdvanced)

	student, err = svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "300", AcademicYear: "2025/2026"})
	require.NoError(t, err)
	assert.Equal(t, "300", student.Level)
	assert.Equal(t, []string{"stu-1", "stu-1"}, repo.updated)
}

func TestStudentServiceUpdateLevelValidation(t *testing.T) {
	svc := NewStudentService(newStudentFixture(), &mockProgramReader{}, &mockCurrentPeriod{}, nil, nil)

	_, err := svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "200"})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "no current period and no academic year")

	_, err = svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "900", AcademicYear: "2024/2025"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateLevel(context.Background(), "stu-1", dto.UpdateStudentLevelRequest{Level: "200", AcademicYear: "2024/2026"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateLevel(context.Background(), "missing", dto.UpdateStudentLevelRequest{Level: "200", AcademicYear: "2024/2025"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
