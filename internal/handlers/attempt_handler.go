package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
	}
}

// StartAssessment starts an attempt or returns the existing one
// @Summary Start assessment
// @Description Creates the attempt report on first call. Later calls return the same report.
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.StartAssessmentRequest true "Assessment to start"
// @Success 201 {object} SuccessResponse{data=services.StartResult}
// @Success 200 {object} SuccessResponse{data=services.StartResult}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/start-assessment [post]
func (h *AttemptHandler) StartAssessment(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.StartAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Starting assessment", "assessment_id", req.AssessmentID)

	result, err := h.attemptService.Start(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if result.Created {
		h.respond(c, http.StatusCreated, "Assessment started", result)
		return
	}
	h.respond(c, http.StatusOK, "Assessment already started", result)
}

// GetQuestion returns one question of the attempt by its 1-based index
// @Summary Get question by index
// @Tags attempts
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param index query int true "1-based question index"
// @Success 200 {object} SuccessResponse{data=services.QuestionView}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/question/{assessmentId} [get]
func (h *AttemptHandler) GetQuestion(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Query("index"))
	if err != nil {
		h.badRequest(c, "Invalid question index", nil)
		return
	}

	view, err := h.attemptService.GetQuestion(c.Request.Context(), userID, assessmentID, index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Question retrieved", view)
}

// GetAllQuestions returns every question of the attempt in attempt order
// @Summary Get all questions
// @Tags attempts
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Success 200 {object} SuccessResponse{data=services.QuestionSet}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/questions/{assessmentId} [get]
func (h *AttemptHandler) GetAllQuestions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	set, err := h.attemptService.GetAllQuestions(c.Request.Context(), userID, assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Questions retrieved", set)
}

// SubmitAnswer records the answer for one question
// @Summary Submit answer
// @Tags attempts
// @Accept json
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param request body services.SubmitAnswerRequest true "Answer"
// @Success 200 {object} SuccessResponse{data=services.EntryState}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/submit-answer/{assessmentId} [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	entry, err := h.attemptService.SubmitAnswer(c.Request.Context(), userID, assessmentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Answer submitted", entry)
}

// MarkForReview flags or unflags one question for review
// @Summary Mark question for review
// @Tags attempts
// @Accept json
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param request body services.MarkForReviewRequest true "Review flag"
// @Success 200 {object} SuccessResponse{data=services.EntryState}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/mark-review/{assessmentId} [post]
func (h *AttemptHandler) MarkForReview(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req services.MarkForReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	entry, err := h.attemptService.MarkForReview(c.Request.Context(), userID, assessmentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Review flag updated", entry)
}

// FinishAssessment completes the attempt and returns the score
// @Summary Finish assessment
// @Tags attempts
// @Accept json
// @Produce json
// @Param assessmentId path string true "Assessment ID"
// @Param request body services.FinishAssessmentRequest true "Final answers and proctoring data"
// @Success 200 {object} SuccessResponse{data=services.FinishResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /assessment/finish-assessment/{assessmentId} [post]
func (h *AttemptHandler) FinishAssessment(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}
	assessmentID, ok := ParseStringIDParam(c, "assessmentId")
	if !ok {
		return
	}

	var req services.FinishAssessmentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "Invalid request payload", err.Error())
			return
		}
	}

	h.LogRequest(c, "Finishing assessment", "assessment_id", assessmentID)

	result, err := h.attemptService.Finish(c.Request.Context(), userID, assessmentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusOK, "Assessment finished", result)
}
