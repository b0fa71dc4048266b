package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/modules/chat/infrastructure/telegram"
)

func TestSendMessage(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	sut := telegram.NewClient("123:token-a", telegram.WithBaseURL(srv.URL))
	require.NoError(t, sut.SendMessage(context.Background(), 100500, "hello"))

	assert.Equal(t, "/bot123:token-a/sendMessage", gotPath)
	assert.Equal(t, float64(100500), gotBody["chat_id"])
	assert.Equal(t, "hello", gotBody["text"])
}

func TestSendMessage_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	sut := telegram.NewClient("bad-token", telegram.WithBaseURL(srv.URL))
	err := sut.SendMessage(context.Background(), 1, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestSendMessage_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	sut := telegram.NewClient("123:token-a", telegram.WithBaseURL(srv.URL))
	require.Error(t, sut.SendMessage(context.Background(), 1, "hello"))
}
