package mailer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToLogSender(t *testing.T) {
	sender := New("", "Tracker", "no-reply@example.com", zap.NewNop())
	_, ok := sender.(*LogSender)
	assert.True(t, ok)
}

func TestLogSenderLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sender := NewLogSender(zap.New(core))

	err := sender.Send(context.Background(), Message{ToEmail: "a@example.com", Subject: "Class in 10 minutes"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}

func TestSendGridSenderPostsMail(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpoint, r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSendGridSender("key", "Tracker", "no-reply@example.com")
	sender.host = server.URL

	err := sender.Send(context.Background(), Message{ToName: "Asha", ToEmail: "asha@example.com", Subject: "Test tomorrow", Text: "Algorithms midterm"})
	require.NoError(t, err)

	personalizations := payload["personalizations"].([]interface{})
	first := personalizations[0].(map[string]interface{})
	assert.Equal(t, "[Tracker] Test tomorrow", first["subject"])
}

func TestSendGridSenderReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	sender := NewSendGridSender("key", "Tracker", "no-reply@example.com")
	sender.host = server.URL

	err := sender.Send(context.Background(), Message{ToEmail: "asha@example.com", Subject: "x", Text: "y"})
	assert.Error(t, err)
}
