package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

// setupRouter echoes the identity the middleware stored and whether the
// caller may act for company 7.
func setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.AuthMiddleware(middleware.NewTokenValidator(testSecret)))
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":     c.GetString(middleware.UserContextKey),
			"role":     c.GetString(middleware.RoleContextKey),
			"company7": middleware.CanAccessCompany(c, 7),
		})
	})
	r.GET("/partners", middleware.PartnerOrAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware_GatewayHeaders(t *testing.T) {
	r := setupRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "u-1")
	req.Header.Set("X-User-Role", "Partner")
	req.Header.Set("X-Company-ID", "7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u-1","role":"partner","company7":true}`, w.Body.String())
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	r := setupRouter()
	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id":    "u-2",
		"role":       "partner",
		"company_id": float64(8),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"u-2","role":"partner","company7":false}`, w.Body.String())
}

func TestAuthMiddleware_AdminMayActForAnyCompany(t *testing.T) {
	r := setupRouter()
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "admin-1", "role": "admin"})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"admin-1","role":"admin","company7":true}`, w.Body.String())
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	expired := signToken(t, testSecret, jwt.MapClaims{"user_id": "u", "exp": time.Now().Add(-time.Hour).Unix()})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{"user_id": "u"})

	tests := []struct {
		name   string
		header string
	}{
		{"no credentials", ""},
		{"not bearer", "Basic abc"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			setupRouter().ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPartnerOrAdmin(t *testing.T) {
	for role, want := range map[string]int{
		"admin":    http.StatusNoContent,
		"partner":  http.StatusNoContent,
		"customer": http.StatusForbidden,
		"":         http.StatusForbidden,
	} {
		t.Run("role="+role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/partners", nil)
			req.Header.Set("X-User-ID", "u-"+strconv.Itoa(len(role)))
			req.Header.Set("X-User-Role", role)
			w := httptest.NewRecorder()
			setupRouter().ServeHTTP(w, req)
			assert.Equal(t, want, w.Code)
		})
	}
}
