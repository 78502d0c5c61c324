package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, logger utils.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
	}
}

// CreateAssessment creates an assessment with its modules
// @Summary Create assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param assessment body services.CreateAssessmentRequest true "Assessment data"
// @Success 201 {object} SuccessResponse{data=services.AssessmentDetail}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /assessment/create [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating assessment", "name", req.Name, "modules", len(req.Modules))

	assessment, err := h.assessmentService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Assessment created successfully", assessment)
}

// ListVisibleAssessments lists the assessments users may see
// @Summary List visible assessments
// @Tags assessments
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} SuccessResponse{data=services.AssessmentListResponse}
// @Router /assessments [get]
func (h *AssessmentHandler) ListVisibleAssessments(c *gin.Context) {
	list, err := h.assessmentService.ListVisible(c.Request.Context(), listFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessments retrieved", list)
}

// ListAssessments lists every assessment, newest first
// @Summary List all assessments
// @Tags assessments
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param sort_by query string false "created_at or name"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} SuccessResponse{data=services.AssessmentListResponse}
// @Failure 403 {object} ErrorResponse
// @Router /assessments/admin [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	list, err := h.assessmentService.List(c.Request.Context(), listFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessments retrieved", list)
}

// GetAssessment returns the definition of an assessment without answers
// @Summary Get assessment
// @Description Hidden assessments are only returned to admins
// @Tags assessments
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Success 200 {object} SuccessResponse{data=services.AssessmentDetail}
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{assessmentId} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Get(c.Request.Context(), assessmentID, h.isAdmin(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessment retrieved", assessment)
}

// UpdateAssessment updates metadata and modules of an assessment
// @Summary Update assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param assessment body services.UpdateAssessmentRequest true "Fields to update"
// @Success 200 {object} SuccessResponse{data=services.AssessmentDetail}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/admin/{assessmentId} [put]
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req services.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Updating assessment", "assessment_id", assessmentID)

	assessment, err := h.assessmentService.Update(c.Request.Context(), assessmentID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessment updated successfully", assessment)
}

// DeleteModule removes a module from an assessment
// @Summary Delete module
// @Tags assessments
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param moduleId path string true "Module ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{assessmentId}/{moduleId} [delete]
func (h *AssessmentHandler) DeleteModule(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}
	moduleID, ok := ParseStringIDParam(c, "moduleId")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting module", "assessment_id", assessmentID, "module_id", moduleID)

	if err := h.assessmentService.DeleteModule(c.Request.Context(), assessmentID, moduleID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Module deleted successfully", nil)
}

// DeleteAssessment deletes an assessment that has no assignments
// @Summary Delete assessment
// @Tags assessments
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessments/{assessmentId} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", assessmentID)

	if err := h.assessmentService.Delete(c.Request.Context(), assessmentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessment deleted successfully", nil)
}

func listFilters(c *gin.Context) repositories.AssessmentFilters {
	limit, offset := parsePagination(c)
	return repositories.AssessmentFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
}
