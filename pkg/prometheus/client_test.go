package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClient_RegisterAndServe 测试注册指标并通过 Handler 暴露
func TestClient_RegisterAndServe(t *testing.T) {
	c, err := New(&Config{Namespace: "users"}, logger.NewNoop())
	require.NoError(t, err)
	defer c.Close()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "users", Name: "sessions_live", Help: "live sessions"})
	require.NoError(t, c.Register(gauge))
	require.NoError(t, c.Register(gauge))
	gauge.Set(3)

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "users_sessions_live 3")
	assert.Contains(t, string(body), "go_goroutines")
}

// TestClient_RegisterConflict 测试同名不同实例冲突
func TestClient_RegisterConflict(t *testing.T) {
	c, err := New(nil, nil)
	require.NoError(t, err)

	a := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total", Help: "a"})
	b := prometheus.NewGauge(prometheus.GaugeOpts{Name: "dup_total", Help: "b"})
	require.NoError(t, c.Register(a))
	assert.Error(t, c.Register(b))
}

// TestClient_HTTPServer 测试独立指标服务
func TestClient_HTTPServer(t *testing.T) {
	c, err := New(&Config{HTTPServer: HTTPServerConfig{Enabled: true, Addr: "127.0.0.1:0"}}, logger.NewNoop())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
}
