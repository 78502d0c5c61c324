package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

type AssignmentHandler struct {
	BaseHandler
	assignmentService services.AssignmentService
}

func NewAssignmentHandler(assignmentService services.AssignmentService, logger utils.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assignmentService: assignmentService,
	}
}

// AssignAssessment assigns an assessment to a list of users
// @Summary Assign assessment
// @Description Rejects the whole request when any user is unknown or already assigned
// @Tags assignments
// @Accept json
// @Produce json
// @Param request body services.AssignRequest true "Assignment data"
// @Success 201 {object} SuccessResponse{data=services.AssignResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessment/assign [post]
func (h *AssignmentHandler) AssignAssessment(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Assigning assessment", "assessment_id", req.AssessmentID, "user_count", len(req.UserIDs))

	result, err := h.assignmentService.Assign(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Assessment assigned successfully", result)
}

// GetAssignedAssessments lists the assessments assigned to the caller
// @Summary List assigned assessments
// @Tags assignments
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]services.AssignedAssessment}
// @Failure 401 {object} ErrorResponse
// @Router /assessment/assigned [get]
func (h *AssignmentHandler) GetAssignedAssessments(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assigned, err := h.assignmentService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assigned assessments retrieved", assigned)
}
