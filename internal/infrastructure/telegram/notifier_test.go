package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
)

func newTestNotifier(t *testing.T) (*Notifier, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	n := NewNotifier(config.TelegramConfig{
		BotToken: "123:abc",
		ChatID:   "-100",
		BaseURL:  "https://telegram.test/",
	}, &http.Client{Transport: mock})
	return n, mock
}

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	n, mock := newTestNotifier(t)
	var form map[string]string
	mock.RegisterResponder(http.MethodPost, "https://telegram.test/bot123:abc/sendMessage",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			form = map[string]string{
				"chat_id":    req.PostForm.Get("chat_id"),
				"text":       req.PostForm.Get("text"),
				"parse_mode": req.PostForm.Get("parse_mode"),
			}
			return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
		})

	require.NoError(t, n.PublishDigest(context.Background(), "*run* done"))
	assert.Equal(t, "-100", form["chat_id"])
	assert.Equal(t, "*run* done", form["text"])
	assert.Equal(t, "Markdown", form["parse_mode"])
}

func TestPublishDigestReportsAPIError(t *testing.T) {
	t.Parallel()

	n, mock := newTestNotifier(t)
	mock.RegisterResponder(http.MethodPost, "=~/sendMessage$",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"ok":false,"description":"chat not found"}`))

	err := n.PublishDigest(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestPublishDigestRequiresConfig(t *testing.T) {
	t.Parallel()

	n := NewNotifier(config.TelegramConfig{BotToken: "x"}, nil)
	assert.False(t, n.Enabled())
	assert.ErrorIs(t, n.PublishDigest(context.Background(), "hello"), ErrNotConfigured)
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("ă", maxMessageRunes+10)
	got := truncate(long, maxMessageRunes)
	assert.Equal(t, maxMessageRunes, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "short", truncate("short", maxMessageRunes))
}

func TestPublishDigestOverHTTP(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "t", ChatID: "1", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, n.PublishDigest(context.Background(), "digest"))
	assert.Equal(t, "/bott/sendMessage", gotPath)
}
