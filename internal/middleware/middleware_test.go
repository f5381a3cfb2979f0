package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"genmedia-backend/internal/config"
	"genmedia-backend/internal/middleware"
)

const testSecret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func authRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ServiceRoleAuth(&config.Config{SupabaseJWTSecret: testSecret}))
	router.POST("/callback", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": c.GetString(middleware.RoleKey)})
	})
	return router
}

func callWithAuth(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", "/callback", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestServiceRoleAuth_Accepts(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"role": "service_role",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w := callWithAuth(authRouter(), "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "service_role")
}

func TestServiceRoleAuth_Rejects(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"role": "service_role",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	wrongSecret := signToken(t, jwt.SigningMethodHS256, []byte("another-secret"), jwt.MapClaims{"role": "service_role"})
	userRole := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "authenticated", "sub": "u-1"})
	hs512 := signToken(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{"role": "service_role"})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer invalid-token", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongSecret, http.StatusUnauthorized},
		{"other algorithm", "Bearer " + hs512, http.StatusUnauthorized},
		{"user token", "Bearer " + userRole, http.StatusForbidden},
	}

	router := authRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, callWithAuth(router, tt.header).Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(middleware.RequestLogger(zap.New(core)))
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.POST("/hook", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 0, logs.Len())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	req, _ = http.NewRequest("POST", "/hook?x=1", nil)
	req.Header.Set(middleware.RequestIDHeader, "rid-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "client error", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, "/hook?x=1", fields["path"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "rid-1", w.Header().Get(middleware.RequestIDHeader))
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CORS())
	router.POST("/hook", func(c *gin.Context) { c.Status(http.StatusOK) })

	req, _ := http.NewRequest("OPTIONS", "/hook", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "X-Fal-Webhook-Signature")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
