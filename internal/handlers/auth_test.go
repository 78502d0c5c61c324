package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/assessment-engine/internal/config"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// whoami echoes the identity the auth middleware stored.
func whoami(auth Authenticator) *gin.Engine {
	router := gin.New()
	router.GET("/me", auth.AuthMiddleware(), func(c *gin.Context) {
		role, _ := GetUserRoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": c.GetString("user_id"), "role": role})
	})
	return router
}

func callWhoami(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name          string
		authorization string
		want          int
		wantID        string
		wantRole      models.UserRole
	}{
		{
			name:          "userId and userType",
			authorization: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"userId": "u1", "userType": "teacher", "exp": future}),
			want:          http.StatusOK,
			wantID:        "u1",
			wantRole:      models.RoleTeacher,
		},
		{
			name:          "subject fallback defaults to student",
			authorization: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "exp": future}),
			want:          http.StatusOK,
			wantID:        "u2",
			wantRole:      models.RoleStudent,
		},
		{
			name:          "role claim",
			authorization: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u3", "role": "admin"}),
			want:          http.StatusOK,
			wantID:        "u3",
			wantRole:      models.RoleAdmin,
		},
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "wrong scheme", authorization: "Token abc", want: http.StatusUnauthorized},
		{name: "wrong secret", authorization: "Bearer " + signToken(t, "other", jwt.MapClaims{"userId": "u1"}), want: http.StatusUnauthorized},
		{name: "expired", authorization: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"userId": "u1", "exp": past}), want: http.StatusUnauthorized},
		{name: "no user id", authorization: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"userType": "teacher"}), want: http.StatusUnauthorized},
		{name: "garbage", authorization: "Bearer not.a.token", want: http.StatusUnauthorized},
	}

	router := whoami(NewJWTAuthMiddleware(config.JWTConfig{Secret: testSecret}))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := callWhoami(router, tt.authorization)

			expectStatus(t, w, tt.want)
			if tt.want != http.StatusOK {
				return
			}
			body := decode(t, w)
			if body["id"] != tt.wantID || body["role"] != string(tt.wantRole) {
				t.Errorf("identity = %v, want %s/%s", body, tt.wantID, tt.wantRole)
			}
		})
	}
}

func TestJWTAuthMiddlewareIssuer(t *testing.T) {
	router := whoami(NewJWTAuthMiddleware(config.JWTConfig{Secret: testSecret, Issuer: "exam-portal"}))

	ok := callWhoami(router, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "iss": "exam-portal"}))
	expectStatus(t, ok, http.StatusOK)

	foreign := callWhoami(router, "Bearer "+signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "iss": "elsewhere"}))
	expectStatus(t, foreign, http.StatusUnauthorized)
}

type fakeParser struct {
	claims *casdoorsdk.Claims
	err    error
}

func (p fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	return p.claims, p.err
}

type fakeUsers struct {
	users map[string]*models.User
	err   error
}

func (f fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (f fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return nil, nil
}

func (f fakeUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (f fakeUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func TestCasdoorAuthMiddleware(t *testing.T) {
	claims := &casdoorsdk.Claims{User: casdoorsdk.User{Id: "u1", Type: "teacher", Email: "u1@example.com"}}

	tests := []struct {
		name     string
		parser   fakeParser
		users    fakeUsers
		want     int
		wantRole models.UserRole
	}{
		{
			name:     "directory record wins",
			parser:   fakeParser{claims: claims},
			users:    fakeUsers{users: map[string]*models.User{"u1": {ID: "u1", Role: models.RoleAdmin}}},
			want:     http.StatusOK,
			wantRole: models.RoleAdmin,
		},
		{
			name:     "claims fallback when unknown",
			parser:   fakeParser{claims: claims},
			users:    fakeUsers{},
			want:     http.StatusOK,
			wantRole: models.RoleTeacher,
		},
		{
			name:     "claims fallback when directory is down",
			parser:   fakeParser{claims: claims},
			users:    fakeUsers{err: errors.New("casdoor unreachable")},
			want:     http.StatusOK,
			wantRole: models.RoleTeacher,
		},
		{
			name:   "invalid token",
			parser: fakeParser{err: errors.New("token is malformed")},
			want:   http.StatusUnauthorized,
		},
		{
			name:   "token without user id",
			parser: fakeParser{claims: &casdoorsdk.Claims{}},
			want:   http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &CasdoorAuthMiddleware{parser: tt.parser, userRepo: tt.users, logger: testLogger()}

			w := callWhoami(whoami(auth), "Bearer token")

			expectStatus(t, w, tt.want)
			if tt.want == http.StatusOK {
				if role := decode(t, w)["role"]; role != string(tt.wantRole) {
					t.Errorf("role = %v, want %s", role, tt.wantRole)
				}
			}
		})
	}
}

func TestNewAuthenticator(t *testing.T) {
	cfg := &config.Config{AuthProvider: config.AuthProviderJWT, JWT: config.JWTConfig{Secret: testSecret}}
	auth, err := NewAuthenticator(cfg, fakeUsers{}, testLogger())
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	if _, ok := auth.(*JWTAuthMiddleware); !ok {
		t.Errorf("got %T, want *JWTAuthMiddleware", auth)
	}

	cfg.AuthProvider = "ldap"
	if _, err := NewAuthenticator(cfg, fakeUsers{}, testLogger()); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
