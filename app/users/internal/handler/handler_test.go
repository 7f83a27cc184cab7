package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lk2023060901/xdooria-users/app/users/internal/auth"
	"github.com/lk2023060901/xdooria-users/app/users/internal/counter"
	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/app/users/internal/store"
	"github.com/lk2023060901/xdooria-users/pkg/crypto"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/web"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine   *gin.Engine
	sessions *manager.SessionManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	hasher := crypto.NewBcryptHasher(crypto.WithCost(bcrypt.MinCost))
	hashed, err := hasher.Hash("secret")
	require.NoError(t, err)

	authn, err := auth.NewStaticAuthenticator([]auth.Account{
		{UserID: 7, Username: "alice", PasswordHash: hashed},
		{UserID: 8, Username: "bob", PasswordHash: hashed},
	}, hasher)
	require.NoError(t, err)

	l := logger.Noop()
	sessions := manager.NewSessionManager(store.NewMemorySessionStore(), counter.New(), nil)
	menus := manager.NewBuyMenuManager(store.NewMemoryBuyMenuStore())

	engine := gin.New()
	NewSessionHandler(sessions, authn, l).Register(engine)
	NewBuyMenuHandler(menus, l).Register(engine)
	NewSystemHandler(sessions.Count, l).Register(engine)
	return &testServer{engine: engine, sessions: sessions}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) model.Session {
	t.Helper()
	var sess model.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	return sess
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) web.Response {
	t.Helper()
	var resp web.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// TestSessionHandler_Scenario 测试 userId=7 的完整请求序列
func TestSessionHandler_Scenario(t *testing.T) {
	s := newTestServer(t)
	creds := `{"username":"alice","password":"secret"}`

	w := s.do(http.MethodPost, "/users/session", creds)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeSession(t, w)
	assert.Equal(t, int64(7), created.UserID)
	assert.NotEmpty(t, created.SessionID)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"sessionId", "userId", "externalNet", "internalNet",
		"currentChannelServerIndex", "currentChannelIndex", "currentRoomId"} {
		assert.Contains(t, raw, key)
	}

	w = s.do(http.MethodPost, "/users/session", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/users/session", `{"userId":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.SessionID, decodeSession(t, w).SessionID)

	w = s.do(http.MethodPut, "/users/session", `{"userId":"7","currentRoomId":323}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/users/session?userId=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeSession(t, w)
	assert.Equal(t, int32(323), got.CurrentRoomID)
	assert.Equal(t, created.ExternalNet, got.ExternalNet)
	assert.Equal(t, created.SessionID, got.SessionID)

	w = s.do(http.MethodDelete, "/users/session", `{"userId":7}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/users/session", `{"userId":7}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/users/session", `{"userId":7}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, s.sessions.Count())
}

// TestSessionHandler_Create 测试创建请求的校验与认证
func TestSessionHandler_Create(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing password", body: `{"username":"alice"}`, want: http.StatusBadRequest},
		{name: "missing username", body: `{"password":"secret"}`, want: http.StatusBadRequest},
		{name: "malformed", body: `{"username":`, want: http.StatusBadRequest},
		{name: "wrong password", body: `{"username":"alice","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"carol","password":"secret"}`, want: http.StatusUnauthorized},
		{name: "ok", body: `{"username":"bob","password":"secret"}`, want: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/users/session", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

// TestSessionHandler_PartialUpdate 测试只更新 externalNet.clientPort
func TestSessionHandler_PartialUpdate(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/users/session", `{"username":"alice","password":"secret"}`).Code)

	w := s.do(http.MethodPut, "/users/session",
		`{"userId":7,"externalNet":{"ipAddress":"1.2.3.4","serverPort":27015},"internalNet":{"tvPort":27020},"currentChannelIndex":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	before := decodeSession(t, s.do(http.MethodGet, "/users/session", `{"userId":7}`))

	w = s.do(http.MethodPut, "/users/session", `{"userId":7,"externalNet":{"clientPort":27005}}`)
	require.Equal(t, http.StatusOK, w.Code)
	after := decodeSession(t, s.do(http.MethodGet, "/users/session", `{"userId":7}`))

	want := before
	want.ExternalNet.ClientPort = 27005
	assert.Equal(t, want, after)
	assert.Equal(t, "1.2.3.4", after.ExternalNet.IPAddress)
	assert.Equal(t, uint16(27015), after.ExternalNet.ServerPort)
}

// TestSessionHandler_UpdateErrors 测试更新请求错误码
func TestSessionHandler_UpdateErrors(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/users/session", `{"username":"alice","password":"secret"}`).Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/users/session", `{"userId":7,"externalNet":{"clientPort":70000}}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/users/session", `{"userId":7,"externalNet":{"clientPort":-1}}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/users/session", `{"userId":7,`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/users/session", `{"userId":7,"currentRoomId":3000000000}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/users/session", `{"userId":7,"currentChannelServerIndex":-2147483649}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/users/session", `{"userId":9,"currentRoomId":1}`).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodPut, "/users/session", `{"userId":7}`).Code)

	w := s.do(http.MethodGet, "/users/session?userId=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decodeSession(t, w).CurrentRoomID)
}

// spySessions 记录是否触达业务层
type spySessions struct {
	calls int
}

func (s *spySessions) Create(context.Context, int64) (*model.Session, error) {
	s.calls++
	return nil, nil
}

func (s *spySessions) Get(context.Context, int64) (*model.Session, error) {
	s.calls++
	return nil, nil
}

func (s *spySessions) Update(context.Context, int64, *model.SessionUpdate) (bool, error) {
	s.calls++
	return false, nil
}

func (s *spySessions) Delete(context.Context, int64) (bool, error) {
	s.calls++
	return false, nil
}

func (s *spySessions) DeleteAll(context.Context) (int64, error) {
	s.calls++
	return 0, nil
}

// TestSessionHandler_InvalidUserID 测试非法 userId 在调用业务层前返回 400
func TestSessionHandler_InvalidUserID(t *testing.T) {
	spy := &spySessions{}
	engine := gin.New()
	NewSessionHandler(spy, nil, logger.Noop()).Register(engine)

	bodies := []string{
		`{"userId":"abc"}`,
		`{"userId":"bad"}`,
		`{"userId":0}`,
		`{"userId":-4}`,
		`{"userId":7.5}`,
		`{"userId":true}`,
		`{"userId":null}`,
		`{}`,
		`not json`,
	}
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		for _, body := range bodies {
			req := httptest.NewRequest(method, "/users/session", strings.NewReader(body))
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, method+" "+body)
		}

		req := httptest.NewRequest(method, "/users/session?userId=abc", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Zero(t, spy.calls)
}

// failingSessions 所有操作返回内部错误
type failingSessions struct {
	spySessions
}

var errBackend = errors.New("connection reset by peer")

func (f *failingSessions) Get(context.Context, int64) (*model.Session, error) {
	return nil, errBackend
}

func (f *failingSessions) DeleteAll(context.Context) (int64, error) {
	return 0, errBackend
}

// TestSessionHandler_InternalError 测试 500 不暴露细节
func TestSessionHandler_InternalError(t *testing.T) {
	engine := gin.New()
	NewSessionHandler(&failingSessions{}, nil, logger.Noop()).Register(engine)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/users/session?userId=1"},
		{http.MethodDelete, "/users/session/all"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	}
}

// TestSessionHandler_DeleteAll 测试清空全部会话
func TestSessionHandler_DeleteAll(t *testing.T) {
	s := newTestServer(t)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/users/session", `{"username":"alice","password":"secret"}`).Code)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/users/session", `{"username":"bob","password":"secret"}`).Code)

	w := s.do(http.MethodDelete, "/users/session/all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":2}`, w.Body.String())
	assert.Zero(t, s.sessions.Count())

	w = s.do(http.MethodDelete, "/users/session/all", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":0}`, w.Body.String())
}

// TestBuyMenuHandler 测试购买菜单路由
func TestBuyMenuHandler(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/inventory/5/buymenu", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/inventory/abc/buymenu", "").Code)

	w := s.do(http.MethodPost, "/inventory/5/buymenu", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var menu model.BuyMenu
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	assert.Equal(t, *model.DefaultBuyMenu(5), menu)

	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/inventory/5/buymenu", "").Code)

	w = s.do(http.MethodPut, "/inventory/5/buymenu", `{"rifles":[1,2,3]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/inventory/5/buymenu", `{"rifles":[1,2,3,4,5,6,7,8,9,10]}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/inventory/5/buymenu", `{"rifles":[-1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPut, "/inventory/5/buymenu", `{"rifles":[3000000000]}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPut, "/inventory/6/buymenu", `{"rifles":[1]}`).Code)

	w = s.do(http.MethodGet, "/inventory/5/buymenu", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &menu))
	assert.Equal(t, []int{1, 2, 3}, menu.Rifles)

	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/inventory/5/buymenu", "").Code)
	w = s.do(http.MethodDelete, "/inventory/5/buymenu", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "buy menu not found", decodeEnvelope(t, w).Message)
}

// TestSystemHandler 测试 ping 与健康检查
func TestSystemHandler(t *testing.T) {
	var healthy = true
	reg := prometheus.NewRegistry()
	h := NewSystemHandler(func() int64 { return 3 }, logger.Noop(),
		WithHealthCheck("postgres", func(context.Context) error { return nil }),
		WithHealthCheck("redis", func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("dial tcp: refused")
		}),
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	engine := gin.New()
	h.Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var ping map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ping))
	assert.Equal(t, int64(3), ping["sessions"])
	assert.Contains(t, ping, "uptime")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	healthy = false
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
