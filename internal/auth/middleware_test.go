package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedish/sidedish/internal/api"
)

func TestMiddleware(t *testing.T) {
	jwtMgr := NewJWTManager("access-secret-for-middleware-test", "refresh-secret-for-middleware-test", time.Minute, time.Hour)
	svc := &Service{jwt: jwtMgr}

	var seen *api.UserClaims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = api.GetUserClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(svc)(next)

	t.Run("valid token puts claims on the context", func(t *testing.T) {
		tokens, _, err := jwtMgr.GenerateTokenPair("user-1", "somehandle")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
		assert.Equal(t, "somehandle", seen.Handle)
	})

	t.Run("missing header", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("garbage token", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})
}
