package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type eligibilityService interface {
	CanRegister(ctx context.Context, studentID, academicYear string, semester int) dto.EligibilityDecision
}

type periodResolver interface {
	Resolve(ctx context.Context, academicYear string, semester int) (string, int, error)
}

// EligibilityHandler exposes registration eligibility checks.
type EligibilityHandler struct {
	eligibility eligibilityService
	periods     periodResolver
}

// NewEligibilityHandler constructs EligibilityHandler.
func NewEligibilityHandler(eligibility eligibilityService, periods periodResolver) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility, periods: periods}
}

// Check godoc
// @Summary Check registration eligibility
// @Description Decides whether the student has paid enough of the fee total to register. Without query values the current period is used.
// @Tags Eligibility
// @Produce json
// @Param id path string true "Student ID"
// @Param academicYear query string false "Academic year, e.g. 2024/2025"
// @Param semester query int false "Semester or trimester number"
// @Success 200 {object} response.Envelope{data=dto.EligibilityDecision}
// @Router /students/{id}/eligibility [get]
func (h *EligibilityHandler) Check(c *gin.Context) {
	var query dto.EligibilityQuery
	if !bindQuery(c, &query, "invalid eligibility query") {
		return
	}
	year, semester, err := h.periods.Resolve(c.Request.Context(), query.AcademicYear, query.Semester)
	if err != nil {
		response.Error(c, err)
		return
	}
	decision := h.eligibility.CanRegister(c.Request.Context(), c.Param("id"), year, semester)
	response.JSON(c, http.StatusOK, decision, nil)
}
