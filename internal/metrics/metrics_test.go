package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	MessagesHandled.WithLabelValues("test-outcome").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(MessagesHandled.WithLabelValues("test-outcome")), 1.0)

	MailSendFailure.WithLabelValues("test-host", "delivery").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(MailSendFailure.WithLabelValues("test-host", "delivery")), 1.0)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServer_ServesAndStops(t *testing.T) {
	addr := freeAddr(t)
	srv := NewServer(addr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)
	assert.True(t, strings.Contains(body, "notifybot_messages_handled_total") || strings.Contains(body, "go_goroutines"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}
