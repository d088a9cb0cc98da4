package notifications

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/halftime-watch/internal/provider"
	"github.com/albapepper/halftime-watch/internal/schedule"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeTelegram struct {
	sendOK bool
	forms  []map[string]string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"HT","username":"ht_bot"}}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		f.forms = append(f.forms, form)
		if !f.sendOK {
			_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100123,"type":"channel"},"text":"x"}}`)
	default:
		http.NotFound(w, r)
	}
}

func newSender(t *testing.T, fake *fakeTelegram, chatID string) *TelegramSender {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s, err := NewTelegramSender(TelegramOptions{
		Token:    "123:abc",
		ChatID:   chatID,
		Timeout:  5 * time.Second,
		Endpoint: srv.URL + "/bot%s/%s",
	}, quiet)
	require.NoError(t, err)
	return s
}

func TestTelegramSend(t *testing.T) {
	fake := &fakeTelegram{sendOK: true}
	s := newSender(t, fake, "-100123")

	require.NoError(t, s.Send(context.Background(), "<b>HT 0-0</b>"))

	require.Len(t, fake.forms, 1)
	assert.Equal(t, "-100123", fake.forms[0]["chat_id"])
	assert.Equal(t, "<b>HT 0-0</b>", fake.forms[0]["text"])
	assert.Equal(t, "HTML", fake.forms[0]["parse_mode"])
}

func TestTelegramSendToChannel(t *testing.T) {
	fake := &fakeTelegram{sendOK: true}
	s := newSender(t, fake, "@htalerts")

	require.NoError(t, s.Send(context.Background(), "hi"))
	assert.Equal(t, "@htalerts", fake.forms[0]["chat_id"])
}

func TestTelegramSendFailure(t *testing.T) {
	s := newSender(t, &fakeTelegram{}, "-100123")

	err := s.Send(context.Background(), "hi")
	assert.ErrorContains(t, err, "chat not found")
}

func TestTelegramSendCancelled(t *testing.T) {
	fake := &fakeTelegram{sendOK: true}
	s := newSender(t, fake, "-100123")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Send(ctx, "hi"))
	assert.Empty(t, fake.forms)
}

func TestInvalidChatID(t *testing.T) {
	_, err := NewTelegramSender(TelegramOptions{Token: "t", ChatID: "general"}, quiet)
	assert.ErrorContains(t, err, "invalid telegram chat id")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", truncateString("abc", 10))
	assert.Equal(t, "ğüş...", truncateString("ğüşçöıx", 6))
}

func TestFormatDigest(t *testing.T) {
	loc := time.UTC
	w := schedule.Window{
		Start: time.Date(2025, 8, 16, 13, 45, 0, 0, loc),
		End:   time.Date(2025, 8, 16, 23, 45, 0, 0, loc),
	}
	text := FormatDigest("2025-08-16", make([]provider.Match, 3), w, true)
	assert.Contains(t, text, "3 matches")
	assert.Contains(t, text, "13:45-23:45")

	empty := FormatDigest("2025-08-16", nil, schedule.Window{}, false)
	assert.Contains(t, empty, "No matches today")
}
