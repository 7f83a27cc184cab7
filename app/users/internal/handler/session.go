package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-users/app/users/internal/auth"
	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/web"
	weberrors "github.com/lk2023060901/xdooria-users/pkg/web/errors"
)

// SessionService 会话生命周期操作
type SessionService interface {
	Create(ctx context.Context, userID int64) (*model.Session, error)
	Get(ctx context.Context, userID int64) (*model.Session, error)
	Update(ctx context.Context, userID int64, u *model.SessionUpdate) (bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

var _ SessionService = (*manager.SessionManager)(nil)

// SessionHandler /users/session 路由
type SessionHandler struct {
	sessions SessionService
	auth     auth.Authenticator
	logger   logger.Logger
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(s SessionService, a auth.Authenticator, l logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: s,
		auth:     a,
		logger:   l.Named("handler.session"),
	}
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// userIDRequest 只携带 userId 的请求体
type userIDRequest struct {
	UserID json.RawMessage `json:"userId"`
}

func (r *userIDRequest) rawUserID() json.RawMessage { return r.UserID }

// updateSessionRequest 更新请求，除 userId 外均为可选
type updateSessionRequest struct {
	UserID json.RawMessage `json:"userId"`
	model.SessionUpdate
}

func (r *updateSessionRequest) rawUserID() json.RawMessage { return r.UserID }

// Register 注册路由
func (h *SessionHandler) Register(r gin.IRouter) {
	g := r.Group("/users/session")
	{
		g.POST("", h.Create)
		g.GET("", h.Get)
		g.PUT("", h.Update)
		g.DELETE("", h.Delete)
		g.DELETE("/all", h.DeleteAll)
	}
}

// Create 校验账号密码后创建会话
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if !web.BindAndValidate(c, &req) {
		return
	}

	ctx := c.Request.Context()
	userID, err := h.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			web.Error(c, http.StatusUnauthorized, weberrors.CodeUnAuthorized, "invalid username or password")
			return
		}
		h.logger.ErrorContext(ctx, "authenticate failed", "username", req.Username, "error", err)
		internalError(c)
		return
	}

	sess, err := h.sessions.Create(ctx, userID)
	if err != nil {
		writeError(c, err, "session")
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// Get 查询会话
func (h *SessionHandler) Get(c *gin.Context) {
	var req userIDRequest
	userID, err := userIDFromRequest(c, &req)
	if err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Update 合并更新会话
func (h *SessionHandler) Update(c *gin.Context) {
	var req updateSessionRequest
	userID, err := userIDFromRequest(c, &req)
	if err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.sessions.Update(c.Request.Context(), userID, &req.SessionUpdate)
	if err != nil {
		writeError(c, err, "session")
		return
	}
	if !ok {
		notFound(c, "session")
		return
	}
	web.Success(c, nil)
}

// Delete 删除会话
func (h *SessionHandler) Delete(c *gin.Context) {
	var req userIDRequest
	userID, err := userIDFromRequest(c, &req)
	if err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.sessions.Delete(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "session")
		return
	}
	if !ok {
		notFound(c, "session")
		return
	}
	web.Success(c, nil)
}

// DeleteAll 删除全部会话
func (h *SessionHandler) DeleteAll(c *gin.Context) {
	n, err := h.sessions.DeleteAll(c.Request.Context())
	if err != nil {
		writeError(c, err, "session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
