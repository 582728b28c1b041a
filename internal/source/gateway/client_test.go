package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessions(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/sessions": `{"success":true,"data":[
			{"id":"s1","name":"first","message_count":4,"is_active":true,
			 "created_at":"2026-08-01T10:00:00Z","updated_at":"2026-08-01T12:00:00Z"},
			{"id":"s2","name":"second","message_count":0,"is_active":false}
		]}`,
	})

	c := New(srv.URL)
	sessions, err := c.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, 4, sessions[0].MessageCount)
	assert.True(t, sessions[0].IsActive)
	assert.False(t, sessions[0].CreatedAt.IsZero())
}

func TestConversation(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/sessions/s1/conversation": `{"success":true,"data":[
			{"message_type":"user","content":"fix the bug","timestamp":"2026-08-01T11:00:00Z"}
		]}`,
	})

	c := New(srv.URL)
	prompts, err := c.Conversation(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "fix the bug", prompts[0].Content)
}

func TestEventsSkipsMalformedElements(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/sessions/s1/events": `{"success":true,"data":[
			{"type":"user","content":"hello","timestamp":"2026-08-01T11:00:00Z"},
			"not an object",
			{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]}}
		]}`,
	})

	c := New(srv.URL)
	events, err := c.Events(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, events, 2, "malformed element degrades to omission")
	assert.Equal(t, "hello", events[0].PlainText())
	assert.Equal(t, "hi", events[1].PlainText())
}

func TestGatewayFailureEnvelope(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/sessions/s1/events": `{"success":false,"error":"session expired"}`,
	})

	c := New(srv.URL)
	_, err := c.Events(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session expired")
}

func TestGatewayHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL)
	_, err := c.Sessions(context.Background())
	require.Error(t, err)
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://gw.example.com", "wss://gw.example.com/ws"},
		{"https://gw.example.com/api", "wss://gw.example.com/api/ws"},
	}
	for _, tt := range tests {
		c := New(tt.base)
		got, err := c.websocketURL()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
