package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"elearn/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(jwtService *jwt.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWTAuth(jwtService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":            c.GetInt64("user_id"),
			"role":               c.GetString("role"),
			"user_name":          c.GetString("user_name"),
			"allow_manual_price": c.GetBool("allow_manual_price"),
		})
	})
	r.GET("/admin", JWTAuth(jwtService), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwtService := jwt.New("test-secret", time.Hour)
	r := setupRouter(jwtService)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := jwt.New("other-secret", time.Hour)
		token, err := other.GenerateToken(10, "seller", "Sam Seller", true)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token loads claims into context", func(t *testing.T) {
		token, err := jwtService.GenerateToken(10, "seller", "Sam Seller", true)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":10`)
		assert.Contains(t, w.Body.String(), `"role":"seller"`)
		assert.Contains(t, w.Body.String(), `"user_name":"Sam Seller"`)
		assert.Contains(t, w.Body.String(), `"allow_manual_price":true`)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := jwt.New("test-secret", -time.Minute)
		token, err := expired.GenerateToken(10, "seller", "Sam Seller", false)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	jwtService := jwt.New("test-secret", time.Hour)
	r := setupRouter(jwtService)

	t.Run("admin passes", func(t *testing.T) {
		token, err := jwtService.GenerateToken(1, "admin", "Root", false)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("student blocked", func(t *testing.T) {
		token, err := jwtService.GenerateToken(20, "student", "Kira", false)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
