package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type registrationService interface {
	Register(ctx context.Context, req dto.CreateRegistrationRequest) (*models.CourseRegistration, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseRegistration, error)
}

// RegistrationHandler exposes course registration.
type RegistrationHandler struct {
	registrations registrationService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations registrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

// Register godoc
// @Summary Register a student for courses
// @Description Requires a positive eligibility decision. Without course_codes every resolved course is registered.
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateRegistrationRequest
	if !bindJSON(c, &req, "invalid registration payload") {
		return
	}
	// students can only register themselves
	if actor.Role == models.RoleStudent {
		req.StudentID = actor.ID
	}
	reg, err := h.registrations.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// StudentRegistrations godoc
// @Summary List a student's registrations
// @Tags Registrations
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/registrations [get]
func (h *RegistrationHandler) StudentRegistrations(c *gin.Context) {
	regs, err := h.registrations.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}
