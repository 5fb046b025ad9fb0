//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhispers(t *testing.T) {
	env := SetupTestEnv(t)

	RegisterUser(t, env, "sender@example.com", "sender", "password123")
	RegisterUser(t, env, "receiver@example.com", "receiver", "password123")
	RegisterUser(t, env, "bystander@example.com", "bystander", "password123")
	senderToken := LoginUser(t, env, "sender@example.com", "password123")
	receiverToken := LoginUser(t, env, "receiver@example.com", "password123")
	bystanderToken := LoginUser(t, env, "bystander@example.com", "password123")

	var whisperID string

	t.Run("send resolves recipient by handle", func(t *testing.T) {
		body := map[string]string{"to_handle": "receiver", "body": "Your nav overlaps the footer on mobile"}
		resp := DoRequest(t, env, "POST", "/api/v1/whispers", body, senderToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		result := ParseResponse(t, resp)
		whisper := result["data"].(map[string]any)
		whisperID = whisper["id"].(string)
		assert.Nil(t, whisper["read_at"])
	})

	t.Run("unknown recipient", func(t *testing.T) {
		body := map[string]string{"to_handle": "ghostuser", "body": "hello?"}
		resp := DoRequest(t, env, "POST", "/api/v1/whispers", body, senderToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cannot whisper to yourself", func(t *testing.T) {
		body := map[string]string{"to_handle": "sender", "body": "note to self"}
		resp := DoRequest(t, env, "POST", "/api/v1/whispers", body, senderToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("inbox and outbox carry handles", func(t *testing.T) {
		resp := DoRequest(t, env, "GET", "/api/v1/whispers/inbox", nil, receiverToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		inbox := ParseResponse(t, resp)["data"].([]any)
		require.Len(t, inbox, 1)
		assert.Equal(t, "sender", inbox[0].(map[string]any)["from_handle"])

		resp = DoRequest(t, env, "GET", "/api/v1/whispers/outbox", nil, senderToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		outbox := ParseResponse(t, resp)["data"].([]any)
		require.Len(t, outbox, 1)
		assert.Equal(t, "receiver", outbox[0].(map[string]any)["to_handle"])
	})

	t.Run("only the recipient can mark read", func(t *testing.T) {
		resp := DoRequest(t, env, "POST", "/api/v1/whispers/"+whisperID+"/read", nil, bystanderToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = DoRequest(t, env, "POST", "/api/v1/whispers/"+whisperID+"/read", nil, receiverToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		result := ParseResponse(t, resp)
		assert.NotNil(t, result["data"].(map[string]any)["read_at"])
	})

	t.Run("marking read twice keeps the original timestamp", func(t *testing.T) {
		resp := DoRequest(t, env, "POST", "/api/v1/whispers/"+whisperID+"/read", nil, receiverToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		first := ParseResponse(t, resp)["data"].(map[string]any)["read_at"]

		resp = DoRequest(t, env, "POST", "/api/v1/whispers/"+whisperID+"/read", nil, receiverToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		second := ParseResponse(t, resp)["data"].(map[string]any)["read_at"]

		assert.Equal(t, first, second)
	})
}
