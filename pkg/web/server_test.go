package web

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/web/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	s, err := NewServer(&Config{Mode: gin.TestMode, Host: "127.0.0.1"}, logger.NewNoop(), opts...)
	require.NoError(t, err)
	return s
}

// TestServer_StartStop 测试监听与优雅停止
func TestServer_StartStop(t *testing.T) {
	port := freePort(t)
	s, err := NewServer(&Config{Mode: gin.TestMode, Host: "127.0.0.1", Port: port}, logger.NewNoop())
	require.NoError(t, err)
	s.Router().GET("/ping", func(c *gin.Context) { Success(c, "pong") })

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrServerAlreadyStarted)
	assert.Equal(t, fmt.Sprintf("127.0.0.1:%d", port), s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "pong", body.Data)

	require.NoError(t, s.GracefulStop())
	assert.ErrorIs(t, s.Stop(), ErrServerNotStarted)
}

// TestServer_StartPortInUse 测试端口被占用
func TestServer_StartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	s, err := NewServer(&Config{Mode: gin.TestMode, Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}, logger.NewNoop())
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

// TestNewServer_InvalidConfig 测试无效配置
func TestNewServer_InvalidConfig(t *testing.T) {
	_, err := NewServer(&Config{Mode: "staging"}, logger.NewNoop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestServer_Recovery 测试 panic 转为 500
func TestServer_Recovery(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprint(errors.CodeInternalError))
}

// TestBindAndValidate 测试请求体绑定
func TestBindAndValidate(t *testing.T) {
	s := newTestServer(t)
	s.Router().POST("/bind", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if !BindAndValidate(c, &req) {
			return
		}
		Success(c, req.Name)
	})

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "ok", body: `{"name":"alice"}`, code: http.StatusOK},
		{name: "missing", body: `{}`, code: http.StatusBadRequest},
		{name: "malformed", body: `{`, code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			s.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

// TestCodeToStatus 测试业务码映射
func TestCodeToStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, errors.CodeToStatus(errors.CodeNotFound))
	assert.Equal(t, http.StatusConflict, errors.CodeToStatus(errors.CodeConflict))
	assert.Equal(t, http.StatusUnauthorized, errors.CodeToStatus(errors.CodeUnAuthorized))
	assert.Equal(t, http.StatusBadRequest, errors.CodeToStatus(errors.CodeInvalidParams))
	assert.Equal(t, http.StatusInternalServerError, errors.CodeToStatus(errors.CodeInternalError))
}
