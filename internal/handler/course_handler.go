package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/middleware"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type catalogService interface {
	ListCourses(ctx context.Context, query dto.CourseListQuery) ([]models.CourseCatalogEntry, bool, error)
	Programs(ctx context.Context) ([]models.Program, error)
	Program(ctx context.Context, id string) (*models.Program, error)
	UpdateMapping(ctx context.Context, id string, req dto.UpdateCourseMappingRequest) (*models.Program, error)
	UpsertCourse(ctx context.Context, code string, req dto.UpsertCourseRequest) (*models.CourseCatalogEntry, error)
}

type courseResolver interface {
	GetProgramCourses(ctx context.Context, programID, level, semester, year, studyMode string) dto.CourseResolution
}

// CourseHandler exposes the catalog, programs and course resolution.
type CourseHandler struct {
	catalog  catalogService
	resolver courseResolver
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(catalog catalogService, resolver courseResolver) *CourseHandler {
	return &CourseHandler{catalog: catalog, resolver: resolver}
}

// ProgramCourses godoc
// @Summary Resolve a program's courses
// @Description Returns the catalog courses mapped to the program for the level, semester, year and study mode. An empty list carries a reason.
// @Tags Courses
// @Produce json
// @Param id path string true "Program ID"
// @Param level query string true "Level, e.g. 200"
// @Param semester query string true "Semester, e.g. 1 or First Semester"
// @Param year query string false "Academic year or all"
// @Param studyMode query string false "Regular, Weekend or all"
// @Success 200 {object} response.Envelope{data=dto.CourseResolution}
// @Router /programs/{id}/courses [get]
func (h *CourseHandler) ProgramCourses(c *gin.Context) {
	var query dto.ProgramCoursesQuery
	if !bindQuery(c, &query, "invalid course query") {
		return
	}
	resolution := h.resolver.GetProgramCourses(c.Request.Context(), c.Param("id"), query.Level, query.Semester, query.Year, query.StudyMode)
	response.JSON(c, http.StatusOK, resolution, nil)
}

// ListCourses godoc
// @Summary List catalog courses
// @Tags Courses
// @Produce json
// @Param level query string false "Level"
// @Param semester query string false "Semester"
// @Param program query string false "Program name"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var query dto.CourseListQuery
	if !bindQuery(c, &query, "invalid course query") {
		return
	}
	courses, cacheHit, err := h.catalog.ListCourses(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, courses, nil, middleware.ExtractMeta(c))
}

// UpsertCourse godoc
// @Summary Create or replace a catalog course
// @Tags Courses
// @Accept json
// @Produce json
// @Param code path string true "Course code"
// @Param payload body dto.UpsertCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope{data=models.CourseCatalogEntry}
// @Failure 400 {object} response.Envelope
// @Router /courses/{code} [put]
func (h *CourseHandler) UpsertCourse(c *gin.Context) {
	var req dto.UpsertCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.catalog.UpsertCourse(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Programs godoc
// @Summary List programs
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programs [get]
func (h *CourseHandler) Programs(c *gin.Context) {
	programs, err := h.catalog.Programs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Program godoc
// @Summary Get a program with its course mapping
// @Tags Courses
// @Produce json
// @Param id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /programs/{id} [get]
func (h *CourseHandler) Program(c *gin.Context) {
	program, err := h.catalog.Program(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// UpdateMapping godoc
// @Summary Replace a program's course mapping
// @Description The mapping is level → semester → year|all → studyMode|all → course codes. Malformed documents are rejected.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Program ID"
// @Param payload body dto.UpdateCourseMappingRequest true "Mapping payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /programs/{id}/course-mapping [put]
func (h *CourseHandler) UpdateMapping(c *gin.Context) {
	var req dto.UpdateCourseMappingRequest
	if !bindJSON(c, &req, "invalid course mapping payload") {
		return
	}
	program, err := h.catalog.UpdateMapping(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}
