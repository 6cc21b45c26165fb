package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/unireg-api/internal/models"
)

const programColumns = `id, name, short_name, course_mapping, created_at, updated_at`

// ProgramRepository reads programs and their course mappings. Mappings are decoded and
// shape-checked on scan, so a malformed document surfaces as an error here.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs a ProgramRepository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// FindByID fetches a program. sql.ErrNoRows is returned unwrapped when absent.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	var program models.Program
	if err := r.db.GetContext(ctx, &program, "SELECT "+programColumns+" FROM programs WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &program, nil
}

// List returns all programs ordered by name.
func (r *ProgramRepository) List(ctx context.Context) ([]models.Program, error) {
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, "SELECT "+programColumns+" FROM programs ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// UpdateMapping replaces a program's course mapping. It reports false when the program does not exist.
func (r *ProgramRepository) UpdateMapping(ctx context.Context, id string, mapping models.ProgramCourseMapping) (bool, error) {
	const query = `UPDATE programs SET course_mapping = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, mapping, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update program mapping: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update program mapping rows: %w", err)
	}
	return affected > 0, nil
}
