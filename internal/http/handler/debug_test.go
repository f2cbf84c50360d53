package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"prospect-api/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims() *auth.CustomClaims {
	return &auth.CustomClaims{
		ActorID: "user-456",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "prospect-web",
			Subject: "user-456",
		},
	}
}

func TestDebugHandler_GetAuthDebug_ProductionBlocked(t *testing.T) {
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "production")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	// Even with valid auth, should return 404 in production
	req = req.WithContext(auth.SetClaimsForTesting(req.Context(), testClaims()))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code, "should return 404 in production")
}

func TestDebugHandler_GetAuthDebug_DevAllowed(t *testing.T) {
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "dev")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(auth.SetClaimsForTesting(req.Context(), testClaims()))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response DebugAuthResponse
	err := json.NewDecoder(rec.Body).Decode(&response)
	require.NoError(t, err)

	assert.True(t, response.OK)
	assert.NotNil(t, response.Data)
	assert.Equal(t, "user-456", response.Data.ActorID)
	assert.NotNil(t, response.Data.TokenIssuer)
	assert.Equal(t, "prospect-web", *response.Data.TokenIssuer)
	assert.NotNil(t, response.Data.Subject)
	assert.Equal(t, "user-456", *response.Data.Subject)
}

func TestDebugHandler_GetAuthDebug_NoAuth(t *testing.T) {
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "dev")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	// No claims set

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Validate error response structure
	var errResponse map[string]interface{}
	err := json.NewDecoder(rec.Body).Decode(&errResponse)
	require.NoError(t, err)

	assert.False(t, errResponse["ok"].(bool))
	assert.NotNil(t, errResponse["error"])
}

func TestDebugHandler_GetAuthDebug_DevelopmentAlias(t *testing.T) {
	originalEnv := os.Getenv("APP_ENV")
	defer os.Setenv("APP_ENV", originalEnv)

	os.Setenv("APP_ENV", "development")

	handler := NewDebugHandler(nil)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(auth.SetClaimsForTesting(req.Context(), testClaims()))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDebugHandler_DefaultAppEnv(t *testing.T) {
	originalEnv := os.Getenv("APP_ENV")
	defer func() {
		if originalEnv != "" {
			os.Setenv("APP_ENV", originalEnv)
		} else {
			os.Unsetenv("APP_ENV")
		}
	}()

	// Unset APP_ENV to test default behavior
	os.Unsetenv("APP_ENV")

	handler := NewDebugHandler(nil)

	// Default should be "production" for safety
	assert.Equal(t, "production", handler.appEnv)

	req := httptest.NewRequest("GET", "/debug/auth", nil)
	req = req.WithContext(auth.SetClaimsForTesting(context.Background(), testClaims()))

	rec := httptest.NewRecorder()
	handler.GetAuthDebug(rec, req)

	// Should return 404 since default is production
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
