package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unireg-api/internal/dto"
	"github.com/noah-isme/unireg-api/internal/models"
	appErrors "github.com/noah-isme/unireg-api/pkg/errors"
	"github.com/noah-isme/unireg-api/pkg/response"
)

type feeService interface {
	GetFeeStructure(level string, mode models.StudyMode) *models.FeeStructure
	List() []models.FeeStructure
	Describe(fs models.FeeStructure) dto.FeeStructureResponse
}

// FeeHandler exposes the fee table.
type FeeHandler struct {
	fees feeService
}

// NewFeeHandler constructs FeeHandler.
func NewFeeHandler(fees feeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

// List godoc
// @Summary List fee structures
// @Tags Fees
// @Produce json
// @Success 200 {object} response.Envelope{data=[]dto.FeeStructureResponse}
// @Router /fees [get]
func (h *FeeHandler) List(c *gin.Context) {
	structures := h.fees.List()
	out := make([]dto.FeeStructureResponse, 0, len(structures))
	for _, fs := range structures {
		out = append(out, h.fees.Describe(fs))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Get godoc
// @Summary Get the fee structure for a level and study mode
// @Tags Fees
// @Produce json
// @Param level path string true "Level, e.g. 100"
// @Param studyMode path string true "Regular or Weekend"
// @Success 200 {object} response.Envelope{data=dto.FeeStructureResponse}
// @Failure 404 {object} response.Envelope
// @Router /fees/{level}/{studyMode} [get]
func (h *FeeHandler) Get(c *gin.Context) {
	fs := h.fees.GetFeeStructure(c.Param("level"), models.StudyMode(c.Param("studyMode")))
	if fs == nil {
		response.Error(c, appErrors.ErrFeeStructureMissing)
		return
	}
	response.JSON(c, http.StatusOK, h.fees.Describe(*fs), nil)
}
