//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "not configured", data["nats"])
}

func TestRegister(t *testing.T) {
	env := SetupTestEnv(t)

	t.Run("successful registration", func(t *testing.T) {
		result := RegisterUser(t, env, "test-reg@example.com", "testreg", "password123")
		data := result["data"].(map[string]any)

		user := data["user"].(map[string]any)
		assert.Equal(t, "testreg", user["handle"])
		assert.Equal(t, "testreg", user["display_name"])

		tokens := data["tokens"].(map[string]any)
		assert.NotEmpty(t, tokens["access_token"])
		assert.NotEmpty(t, tokens["refresh_token"])
		assert.NotZero(t, tokens["expires_in"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		RegisterUser(t, env, "dupe@example.com", "dupeone", "password123")

		body := map[string]string{"email": "dupe@example.com", "handle": "dupetwo", "password": "password123"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("duplicate handle", func(t *testing.T) {
		RegisterUser(t, env, "handleone@example.com", "sharedhandle", "password123")

		body := map[string]string{"email": "handletwo@example.com", "handle": "sharedhandle", "password": "password123"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid email", func(t *testing.T) {
		body := map[string]string{"email": "not-an-email", "handle": "validhandle", "password": "password123"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("short password", func(t *testing.T) {
		body := map[string]string{"email": "short@example.com", "handle": "shortpw", "password": "short"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("handle with invalid characters", func(t *testing.T) {
		body := map[string]string{"email": "badhandle@example.com", "handle": "bad handle!", "password": "password123"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLogin(t *testing.T) {
	env := SetupTestEnv(t)

	RegisterUser(t, env, "login@example.com", "loginuser", "password123")

	t.Run("successful login", func(t *testing.T) {
		token := LoginUser(t, env, "login@example.com", "password123")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{"email": "login@example.com", "password": "wrongpassword"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email", func(t *testing.T) {
		body := map[string]string{"email": "nobody@example.com", "password": "password123"}
		resp := DoRequest(t, env, "POST", "/api/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestRefreshRotation(t *testing.T) {
	env := SetupTestEnv(t)

	result := RegisterUser(t, env, "refresh@example.com", "refreshuser", "password123")
	data := result["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	refreshToken := tokens["refresh_token"].(string)

	// First refresh succeeds and rotates the token
	body := map[string]string{"refresh_token": refreshToken}
	resp := DoRequest(t, env, "POST", "/api/v1/auth/refresh", body, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refreshed := ParseResponse(t, resp)
	newTokens := refreshed["data"].(map[string]any)
	assert.NotEmpty(t, newTokens["access_token"])
	assert.NotEqual(t, refreshToken, newTokens["refresh_token"])

	// The old refresh token is single-use
	resp = DoRequest(t, env, "POST", "/api/v1/auth/refresh", body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	env := SetupTestEnv(t)

	result := RegisterUser(t, env, "logout@example.com", "logoutuser", "password123")
	data := result["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	accessToken := tokens["access_token"].(string)
	refreshToken := tokens["refresh_token"].(string)

	resp := DoRequest(t, env, "POST", "/api/v1/auth/logout", nil, accessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh tokens are revoked after logout
	body := map[string]string{"refresh_token": refreshToken}
	resp = DoRequest(t, env, "POST", "/api/v1/auth/refresh", body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := SetupTestEnv(t)

	resp := DoRequest(t, env, "GET", "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = DoRequest(t, env, "GET", "/api/v1/drafts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = DoRequest(t, env, "GET", "/api/v1/users/me", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
