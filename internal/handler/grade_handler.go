package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type gradeService interface {
	Compute(req dto.ComputeGradeRequest) models.GradeResult
	Create(ctx context.Context, actor models.Actor, req dto.CreateGradeSubmissionRequest) (*models.GradeSubmission, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error)
	List(ctx context.Context, actor models.Actor, query dto.GradeSubmissionQuery) ([]models.GradeSubmission, error)
	Submit(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error)
	Approve(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error)
	Publish(ctx context.Context, actor models.Actor, id string) (*models.GradeSubmission, error)
	PublishedGrades(ctx context.Context, studentID string) ([]models.PublishedGrade, error)
}

// GradeHandler exposes grade computation and the submission workflow.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Compute godoc
// @Summary Compute a grade from its components
// @Description Components are capped at 10, 20 and 70. Missing components count as zero unless all are missing.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.ComputeGradeRequest true "Grade components"
// @Success 200 {object} response.Envelope{data=models.GradeResult}
// @Router /grades/compute [post]
func (h *GradeHandler) Compute(c *gin.Context) {
	var req dto.ComputeGradeRequest
	if !bindJSON(c, &req, "invalid grade components") {
		return
	}
	response.JSON(c, http.StatusOK, h.grades.Compute(req), nil)
}

// CreateSubmission godoc
// @Summary Draft a grade submission
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradeSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade-submissions [post]
func (h *GradeHandler) CreateSubmission(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateGradeSubmissionRequest
	if !bindJSON(c, &req, "invalid grade submission payload") {
		return
	}
	submission, err := h.grades.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// ListSubmissions godoc
// @Summary List grade submissions
// @Tags Grades
// @Produce json
// @Param courseCode query string false "Course code"
// @Param academicYear query string false "Academic year"
// @Param semester query int false "Semester"
// @Param status query string false "draft, pending_approval, approved or published"
// @Success 200 {object} response.Envelope
// @Router /grade-submissions [get]
func (h *GradeHandler) ListSubmissions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var query dto.GradeSubmissionQuery
	if !bindQuery(c, &query, "invalid submission query") {
		return
	}
	submissions, err := h.grades.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, nil)
}

// GetSubmission godoc
// @Summary Get a grade submission with its entries
// @Tags Grades
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grade-submissions/{id} [get]
func (h *GradeHandler) GetSubmission(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	submission, err := h.grades.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Submit godoc
// @Summary Submit a draft for approval
// @Tags Grades
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade-submissions/{id}/submit [post]
func (h *GradeHandler) Submit(c *gin.Context) {
	h.transition(c, h.grades.Submit)
}

// Approve godoc
// @Summary Approve a pending submission
// @Tags Grades
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade-submissions/{id}/approve [post]
func (h *GradeHandler) Approve(c *gin.Context) {
	h.transition(c, h.grades.Approve)
}

// Publish godoc
// @Summary Publish an approved submission
// @Tags Grades
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grade-submissions/{id}/publish [post]
func (h *GradeHandler) Publish(c *gin.Context) {
	h.transition(c, h.grades.Publish)
}

// StudentGrades godoc
// @Summary List a student's published grades
// @Tags Grades
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/grades [get]
func (h *GradeHandler) StudentGrades(c *gin.Context) {
	grades, err := h.grades.PublishedGrades(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

func (h *GradeHandler) transition(c *gin.Context, move func(context.Context, models.Actor, string) (*models.GradeSubmission, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	submission, err := move(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
