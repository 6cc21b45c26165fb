package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type periodService interface {
	Current(ctx context.Context) (*models.AcademicPeriod, error)
	List(ctx context.Context) ([]models.AcademicPeriod, error)
	SetCurrent(ctx context.Context, req dto.SetCurrentPeriodRequest) (*models.AcademicPeriod, error)
}

// PeriodHandler exposes academic periods.
type PeriodHandler struct {
	periods periodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods periodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// Current godoc
// @Summary Get the current academic period
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /periods/current [get]
func (h *PeriodHandler) Current(c *gin.Context) {
	period, err := h.periods.Current(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// List godoc
// @Summary List academic periods
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periods.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// SetCurrent godoc
// @Summary Set the current academic period
// @Tags Periods
// @Accept json
// @Produce json
// @Param payload body dto.SetCurrentPeriodRequest true "Period payload"
// @Success 200 {object} response.Envelope
// @Router /periods/current [put]
func (h *PeriodHandler) SetCurrent(c *gin.Context) {
	var req dto.SetCurrentPeriodRequest
	if !bindJSON(c, &req, "invalid period payload") {
		return
	}
	period, err := h.periods.SetCurrent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
