package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

const maxImportFileSize = 10 << 20

var allowedImportExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
}

type QuestionBankHandler struct {
	BaseHandler
	questionBankService services.QuestionBankService
}

func NewQuestionBankHandler(questionBankService services.QuestionBankService, logger utils.Logger) *QuestionBankHandler {
	return &QuestionBankHandler{
		BaseHandler:         NewBaseHandler(logger),
		questionBankService: questionBankService,
	}
}

// AddQuestions appends questions to a module
// @Summary Add questions to module
// @Tags question-bank
// @Accept json
// @Produce json
// @Param request body services.AddQuestionsRequest true "Questions"
// @Success 201 {object} SuccessResponse{data=services.AddQuestionsResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/module/add-questions [post]
func (h *QuestionBankHandler) AddQuestions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	var req services.AddQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Adding questions", "assessment_id", req.AssessmentID, "module_id", req.ModuleID, "count", len(req.Questions))

	result, err := h.questionBankService.AddQuestions(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Questions added successfully", result)
}

// ImportQuestions imports questions from an uploaded xlsx or csv sheet
// @Summary Import questions from file
// @Tags question-bank
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Question sheet (.xlsx or .csv)"
// @Param assessmentId formData string true "Assessment ID"
// @Param moduleId formData string true "Module ID"
// @Success 201 {object} SuccessResponse{data=services.AddQuestionsResult}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessment/module/import-questions [post]
func (h *QuestionBankHandler) ImportQuestions(c *gin.Context) {
	userID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	assessmentID := strings.TrimSpace(c.PostForm("assessmentId"))
	moduleID := strings.TrimSpace(c.PostForm("moduleId"))
	if assessmentID == "" || moduleID == "" {
		h.badRequest(c, "assessmentId and moduleId are required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "File upload required", err.Error())
		return
	}

	if fileHeader.Size > maxImportFileSize {
		h.badRequest(c, "File too large", gin.H{"max_bytes": maxImportFileSize})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImportExtensions[ext] {
		h.badRequest(c, "Unsupported file type", gin.H{"allowed": []string{".xlsx", ".csv"}})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.badRequest(c, "Failed to read uploaded file", err.Error())
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "assessment_id", assessmentID, "module_id", moduleID, "filename", fileHeader.Filename)

	result, err := h.questionBankService.ImportQuestions(c.Request.Context(), assessmentID, moduleID, fileHeader.Filename, file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respond(c, http.StatusCreated, "Questions imported successfully", result)
}
