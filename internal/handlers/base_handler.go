package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/services"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	ErrorID string      `json:"error_id,omitempty"`
}

// SuccessResponse is the body of every successful request.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args, "method", c.Request.Method, "path", c.FullPath())
	if userID := c.GetString("user_id"); userID != "" {
		args = append(args, "user_id", userID)
	}
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err.Error(), "path", c.FullPath())
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

func (h *BaseHandler) respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *BaseHandler) badRequest(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: message,
		Details: details,
	})
}

// requireUserID reads the authenticated user id and writes a 401 when it is missing.
func (h *BaseHandler) requireUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) isAdmin(c *gin.Context) bool {
	role, err := GetUserRoleFromContext(c)
	return err == nil && role.IsAdmin()
}

// handleServiceError maps service errors to status codes. Anything that is not a
// known domain error is logged and reported as an opaque 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.badRequest(c, "Validation failed", validationErrors)
		return
	}

	var importErr *services.ImportError
	if errors.As(err, &importErr) {
		h.badRequest(c, "Import failed", importErr.Rows)
		return
	}

	var idListErr *services.IDListError
	if errors.As(err, &idListErr) {
		c.JSON(statusFor(err), ErrorResponse{
			Message: idListErr.Message,
			Details: gin.H{idListErr.Field: idListErr.IDs},
		})
		return
	}

	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(statusFor(err), ErrorResponse{
			Message: domainErr.Message,
		})
		return
	}

	if status := statusFor(err); status != http.StatusInternalServerError {
		c.JSON(status, ErrorResponse{Message: err.Error()})
		return
	}

	requestID := c.GetString("request_id")
	h.LogError(c, err, "Unhandled service error", "request_id", requestID)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Message: "Internal server error",
		ErrorID: requestID,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ParseStringIDParam reads a required path parameter and writes a 400 when it is blank.
func ParseStringIDParam(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing " + name,
		})
		return "", false
	}
	return id, true
}

func parsePagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxPageLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

// GetUserIDFromContext extracts the authenticated user id set by the auth middleware.
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", errors.New("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts the authenticated user role set by the auth middleware.
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", errors.New("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}

	return role, nil
}
