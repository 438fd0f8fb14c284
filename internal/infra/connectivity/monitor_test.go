package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonitor_InvalidSchedule(t *testing.T) {
	_, err := NewMonitor(NewFlag(false), nil, "http://example.com", "whenever")
	assert.Error(t, err)
}

func TestMonitor_Probe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		// ステータスに関わらず応答があれば接続とみなす
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	flag := NewFlag(false)
	m, err := NewMonitor(flag, srv.Client(), srv.URL, "@every 1h")
	require.NoError(t, err)

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, flag.Connected())

	srv.Close()
	assert.False(t, m.Probe(context.Background()))
	assert.False(t, flag.Connected())
}

func TestMonitor_StartStop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	flag := NewFlag(false)
	m, err := NewMonitor(flag, srv.Client(), srv.URL, "@every 1s")
	require.NoError(t, err)

	m.Start(context.Background())
	defer m.Stop()

	// 起動直後に一度プローブする
	assert.True(t, flag.Connected())
	assert.Eventually(t, func() bool { return hits.Load() >= 2 }, 3*time.Second, 50*time.Millisecond)
}
