package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unireg-api/internal/models"
)

const courseColumns = `code, title, credits, level, semester, program`

// CourseRepository reads the course catalog.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListCatalog returns every catalog entry ordered by code.
func (r *CourseRepository) ListCatalog(ctx context.Context) ([]models.CourseCatalogEntry, error) {
	var courses []models.CourseCatalogEntry
	if err := r.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM course_catalog ORDER BY code ASC"); err != nil {
		return nil, fmt.Errorf("list course catalog: %w", err)
	}
	return courses, nil
}

// Upsert inserts or replaces a catalog entry keyed by code.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.CourseCatalogEntry) error {
	const query = `INSERT INTO course_catalog (code, title, credits, level, semester, program)
VALUES (:code, :title, :credits, :level, :semester, :program)
ON CONFLICT (code)
DO UPDATE SET title = EXCLUDED.title, credits = EXCLUDED.credits, level = EXCLUDED.level,
              semester = EXCLUDED.semester, program = EXCLUDED.program`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("upsert course %s: %w", course.Code, err)
	}
	return nil
}
