package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
	"github.com/noah-isme/college-records-api/pkg/response"
)

type resultService interface {
	EnterResults(ctx context.Context, assessmentID int64, req models.EnterResultsRequest) (*models.EnterResultsResult, error)
}

// AssessmentHandler records results.
type AssessmentHandler struct {
	results resultService
}

func NewAssessmentHandler(results resultService) *AssessmentHandler {
	return &AssessmentHandler{results: results}
}

// EnterResults godoc
// @Summary Enter results
// @Description Upsert marks keyed by student id. Blank marks are skipped; any invalid entry rejects the batch.
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path int true "Assessment ID"
// @Param payload body models.EnterResultsRequest true "Marks by student id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id}/results [post]
func (h *AssessmentHandler) EnterResults(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.EnterResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid results payload"))
		return
	}
	res, err := h.results.EnterResults(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
