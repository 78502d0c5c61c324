package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/utils"
)

// Authenticator resolves the caller of a request and stores it in the gin context.
type Authenticator interface {
	AuthMiddleware() gin.HandlerFunc
}

// NewAuthenticator returns the middleware selected by AUTH_PROVIDER.
func NewAuthenticator(cfg *config.Config, userRepo repositories.UserRepository, logger utils.Logger) (Authenticator, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderCasdoor:
		return NewCasdoorAuthMiddleware(cfg.Casdoor, userRepo, logger), nil
	case config.AuthProviderJWT:
		return NewJWTAuthMiddleware(cfg.JWT), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "Authorization header missing")
		return "", false
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" || tokenParts[1] == "" {
		abortUnauthorized(c, "Invalid authorization header format")
		return "", false
	}

	return tokenParts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: message,
	})
}

func setUser(c *gin.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", user.Role)
	c.Set("user_email", user.Email)
}

// RequireRoleMiddleware lets the request through when the caller has one of
// the roles. Admins always pass.
func RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "User role not found",
			})
			return
		}

		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleAdmin {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Admin access required",
			Details: gin.H{"required_roles": requiredRoles},
		})
	}
}
