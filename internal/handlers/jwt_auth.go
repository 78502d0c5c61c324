package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories/casdoor"
)

// JWTAuthMiddleware authenticates requests with HMAC signed tokens carrying
// userId (or sub) and userType claims.
type JWTAuthMiddleware struct {
	secret []byte
	issuer string
}

func NewJWTAuthMiddleware(cfg config.JWTConfig) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			return
		}

		user, err := m.parse(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

func (m *JWTAuthMiddleware) parse(tokenString string) (*models.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	userID := stringClaim(claims, "userId")
	if userID == "" {
		userID, _ = claims.GetSubject()
	}
	if userID == "" {
		return nil, errors.New("token carries no user id")
	}

	role := stringClaim(claims, "userType")
	if role == "" {
		role = stringClaim(claims, "role")
	}

	return &models.User{
		ID:    userID,
		Email: stringClaim(claims, "email"),
		Role:  casdoor.MapRole(role),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}
