package dto

import (
	"encoding/json"

	"github.com/noah-isme/unireg-api/internal/models"
)

// Course resolution sources.
const (
	ResolutionSourceMapping  = "mapping"
	ResolutionSourceFallback = "fallback"
	ResolutionSourceNone     = "none"
)

// ProgramCoursesQuery is the lookup context for resolving a program's courses.
type ProgramCoursesQuery struct {
	Level     string `form:"level" validate:"required"`
	Semester  string `form:"semester" validate:"required"`
	Year      string `form:"year"`
	StudyMode string `form:"studyMode"`
}

// CourseResolution is the outcome of resolving a program's courses. Reason explains an empty result.
type CourseResolution struct {
	ProgramID string                      `json:"program_id"`
	Courses   []models.CourseCatalogEntry `json:"courses"`
	Source    string                      `json:"source"`
	Reason    string                      `json:"reason,omitempty"`
	Strategy  string                      `json:"strategy,omitempty"`
}

// CourseListQuery filters the catalog listing.
type CourseListQuery struct {
	Level    string `form:"level"`
	Semester string `form:"semester"`
	Program  string `form:"program"`
}

// UpdateCourseMappingRequest replaces a program's structured course mapping.
type UpdateCourseMappingRequest struct {
	Mapping json.RawMessage `json:"mapping" validate:"required"`
}

// UpsertCourseRequest creates or replaces a catalog entry; the code comes from the path.
type UpsertCourseRequest struct {
	Title    string `json:"title" validate:"required,max=128"`
	Credits  int    `json:"credits" validate:"min=0,max=12"`
	Level    string `json:"level" validate:"required"`
	Semester string `json:"semester" validate:"required"`
	Program  string `json:"program" validate:"required,max=128"`
}
