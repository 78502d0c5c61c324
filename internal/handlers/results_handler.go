package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ResultsHandler struct {
	BaseHandler
	resultsService services.ResultsService
}

func NewResultsHandler(resultsService services.ResultsService, logger utils.Logger) *ResultsHandler {
	return &ResultsHandler{
		BaseHandler:    NewBaseHandler(logger),
		resultsService: resultsService,
	}
}

// GetResults lists every assignee of an assessment with their score
// @Summary Get assessment results
// @Tags results
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Success 200 {object} SuccessResponse{data=services.AssessmentResults}
// @Failure 404 {object} ErrorResponse
// @Router /assessments/admin/result/{assessmentId} [get]
func (h *ResultsHandler) GetResults(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	results, err := h.resultsService.GetResultsForAssessment(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Results retrieved", results)
}

// GetUserResult returns the per-question breakdown of one user's attempt
// @Summary Get user result
// @Tags results
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param userId path string true "User ID"
// @Success 200 {object} SuccessResponse{data=services.UserResult}
// @Failure 404 {object} ErrorResponse
// @Router /assessments/admin/result/{assessmentId}/{userId} [get]
func (h *ResultsHandler) GetUserResult(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}
	userID, ok := ParseStringIDParam(c, "userId")
	if !ok {
		return
	}

	result, err := h.resultsService.GetUserResult(c.Request.Context(), assessmentID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "User result retrieved", result)
}

// ExportResults downloads the results as an xlsx workbook
// @Summary Export assessment results
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param assessmentId path string true "Assessment ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /assessments/admin/result/{assessmentId}/export [get]
func (h *ResultsHandler) ExportResults(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting results", "assessment_id", assessmentID)

	data, err := h.resultsService.ExportResults(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, assessmentID))
	c.Data(http.StatusOK, xlsxContentType, data)
}
