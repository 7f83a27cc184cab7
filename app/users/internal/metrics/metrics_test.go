package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew 测试默认配置合并
func TestNew(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, "users", m.GetConfig().Namespace)
	assert.NotEmpty(t, m.GetConfig().Buckets)
}

// TestSessionMetrics_Record 测试记录操作与在线数
func TestSessionMetrics_Record(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))

	m.RecordOperation("create", ResultOK, 3*time.Millisecond)
	m.RecordOperation("create", "conflict", time.Millisecond)
	m.RecordOperation("create", ResultOK, time.Millisecond)
	m.SetLive(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Operations.WithLabelValues("create", ResultOK)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("create", "conflict")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.LiveSessions))

	expected := `
# HELP users_sessions_live 当前在线会话数
# TYPE users_sessions_live gauge
users_sessions_live 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "users_sessions_live"))

	n, err := testutil.GatherAndCount(reg, "users_session_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
