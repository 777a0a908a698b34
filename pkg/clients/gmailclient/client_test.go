package gmailclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type recordingServer struct {
	mu    sync.Mutex
	raws  []string
	times []time.Time
}

func newTestClient(t *testing.T, status int) (*Client, *recordingServer) {
	t.Helper()
	rec := &recordingServer{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, status)
			return
		}

		var msg struct {
			Raw string `json:"raw"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rec.mu.Lock()
		rec.raws = append(rec.raws, msg.Raw)
		rec.times = append(rec.times, time.Now())
		rec.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClientWithOptions(context.Background(), "rotation@example.gov.tr",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return client, rec
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.gov.tr", "to@example.gov.tr", "Rotasyon uyarısı", "body text"))

	assert.True(t, strings.HasPrefix(msg, "From: from@example.gov.tr\r\nTo: to@example.gov.tr\r\n"))
	assert.Contains(t, msg, "Subject: =?utf-8?q?")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nbody text"))
}

func TestBuildMessage_NoSender(t *testing.T) {
	msg := string(buildMessage("", "to@example.gov.tr", "Alerts", "body"))

	assert.True(t, strings.HasPrefix(msg, "To: to@example.gov.tr\r\n"))
	assert.Contains(t, msg, "Subject: Alerts\r\n")
}

func TestSendEmail_PostsEncodedMessage(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK)

	err := client.SendEmail(context.Background(), "audit@example.gov.tr", "Alerts", "2 overdue tasks")
	require.NoError(t, err)

	require.Len(t, rec.raws, 1)
	decoded, err := base64.URLEncoding.DecodeString(rec.raws[0])
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: audit@example.gov.tr\r\n")
	assert.Contains(t, string(decoded), "2 overdue tasks")
}

func TestSendEmail_Throttles(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK)
	client.SetInterval(50 * time.Millisecond)

	ctx := context.Background()
	require.NoError(t, client.SendEmail(ctx, "a@example.gov.tr", "s", "b"))
	require.NoError(t, client.SendEmail(ctx, "b@example.gov.tr", "s", "b"))

	require.Len(t, rec.times, 2)
	assert.GreaterOrEqual(t, rec.times[1].Sub(rec.times[0]), 40*time.Millisecond)
}

func TestSendEmail_CancelledWhileWaiting(t *testing.T) {
	client, rec := newTestClient(t, http.StatusOK)
	client.SetInterval(time.Hour)

	require.NoError(t, client.SendEmail(context.Background(), "a@example.gov.tr", "s", "b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.SendEmail(ctx, "b@example.gov.tr", "s", "b")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, rec.raws, 1)
}

func TestSendEmail_APIError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError)

	err := client.SendEmail(context.Background(), "a@example.gov.tr", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send email")
}
