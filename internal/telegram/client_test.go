package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	c := &Client{
		client:      resty.New().SetBaseURL(server.URL),
		logger:      zap.NewNop(),
		limiter:     rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
		pollTimeout: 0,
	}
	return c, server
}

func TestGetMe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/getMe", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": true, "result": {"username": "copier_bot"}}`))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		username, err := c.GetMe(context.Background())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "copier_bot", username)
	})

	t.Run("Rejected", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok": false, "description": "Unauthorized"}`))
		})
		c, server := setupTestServer(handler)
		defer server.Close()

		username, err := c.GetMe(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Unauthorized")
		assert.Empty(t, username)
	})
}

func TestGetUpdates(t *testing.T) {
	// Arrange
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getUpdates", r.URL.Path)
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true, "result": [
			{"update_id": 41, "channel_post": {"text": "BUY gold", "chat": {"id": -1001, "title": "Gold Signals"}}},
			{"update_id": 42, "message": {"text": "hello", "chat": {"id": 55}}}
		]}`))
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	// Act
	updates, err := c.getUpdates(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, int64(41), updates[0].UpdateID)
	assert.Equal(t, "BUY gold", updates[0].ChannelPost.Text)
	assert.Equal(t, int64(-1001), updates[0].ChannelPost.Chat.ID)
	assert.Equal(t, "Gold Signals", updates[0].ChannelPost.Chat.Title)
	assert.Equal(t, "hello", updates[1].Message.Text)
}

func TestGetUpdates_ServerError(t *testing.T) {
	// Every attempt fails, so the bounded retry gives up.
	attempts := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})
	c, server := setupTestServer(handler)
	defer server.Close()

	updates, err := c.getUpdates(context.Background())

	assert.Error(t, err)
	assert.Nil(t, updates)
	assert.Equal(t, 3, attempts)
}
