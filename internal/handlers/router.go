package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

const healthCheckTimeout = 3 * time.Second

type HandlerManager struct {
	assessmentHandler   *AssessmentHandler
	assignmentHandler   *AssignmentHandler
	attemptHandler      *AttemptHandler
	resultsHandler      *ResultsHandler
	questionBankHandler *QuestionBankHandler

	serviceManager services.ServiceManager
	auth           Authenticator
	rateLimiter    *RateLimiter
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	auth Authenticator,
	rateLimiter *RateLimiter,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler:   NewAssessmentHandler(serviceManager.Assessment(), logger),
		assignmentHandler:   NewAssignmentHandler(serviceManager.Assignment(), logger),
		attemptHandler:      NewAttemptHandler(serviceManager.Attempt(), logger),
		resultsHandler:      NewResultsHandler(serviceManager.Results(), logger),
		questionBankHandler: NewQuestionBankHandler(serviceManager.QuestionBank(), logger),
		serviceManager:      serviceManager,
		auth:                auth,
		rateLimiter:         rateLimiter,
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.auth.AuthMiddleware())
	if hm.rateLimiter != nil {
		v1.Use(RateLimitMiddleware(hm.rateLimiter))
	}

	requireAdmin := RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	// Attempt and assignment routes
	assessment := v1.Group("/assessment")
	{
		assessment.POST("/assign", requireAdmin, hm.assignmentHandler.AssignAssessment)
		assessment.GET("/assigned", hm.assignmentHandler.GetAssignedAssessments)

		assessment.POST("/start-assessment", hm.attemptHandler.StartAssessment)
		assessment.GET("/question/:assessmentId", hm.attemptHandler.GetQuestion)
		assessment.GET("/questions/:assessmentId", hm.attemptHandler.GetAllQuestions)
		assessment.POST("/submit-answer/:assessmentId", hm.attemptHandler.SubmitAnswer)
		assessment.POST("/mark-review/:assessmentId", hm.attemptHandler.MarkForReview)
		assessment.POST("/finish-assessment/:assessmentId", hm.attemptHandler.FinishAssessment)

		// Definition management - Teachers and Admins only
		assessment.POST("/create", requireAdmin, hm.assessmentHandler.CreateAssessment)
		assessment.POST("/module/add-questions", requireAdmin, hm.questionBankHandler.AddQuestions)
		assessment.POST("/module/import-questions", requireAdmin, hm.questionBankHandler.ImportQuestions)
	}

	assessments := v1.Group("/assessments")
	{
		assessments.GET("", hm.assessmentHandler.ListVisibleAssessments)
		assessments.GET("/:assessmentId", hm.assessmentHandler.GetAssessment)

		admin := assessments.Group("/admin", requireAdmin)
		{
			admin.GET("", hm.assessmentHandler.ListAssessments)
			admin.PUT("/:assessmentId", hm.assessmentHandler.UpdateAssessment)
			admin.GET("/result/:assessmentId", hm.resultsHandler.GetResults)
			admin.GET("/result/:assessmentId/export", hm.resultsHandler.ExportResults)
			admin.GET("/result/:assessmentId/:userId", hm.resultsHandler.GetUserResult)
		}

		assessments.DELETE("/:assessmentId/:moduleId", requireAdmin, hm.assessmentHandler.DeleteModule)
		assessments.DELETE("/:assessmentId", requireAdmin, hm.assessmentHandler.DeleteAssessment)
	}
}

// HealthCheck reports whether the store behind the services is reachable
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "assessment-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "assessment-service",
	})
}
