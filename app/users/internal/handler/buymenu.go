package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/app/users/internal/model"
	"github.com/lk2023060901/xdooria-users/pkg/logger"
	"github.com/lk2023060901/xdooria-users/pkg/web"
)

// BuyMenuService 购买菜单操作
type BuyMenuService interface {
	Create(ctx context.Context, userID int64) (*model.BuyMenu, error)
	Get(ctx context.Context, userID int64) (*model.BuyMenu, error)
	Update(ctx context.Context, userID int64, u *model.BuyMenuUpdate) (bool, error)
	Delete(ctx context.Context, userID int64) (bool, error)
}

var _ BuyMenuService = (*manager.BuyMenuManager)(nil)

// BuyMenuHandler /inventory/:userId/buymenu 路由
type BuyMenuHandler struct {
	menus  BuyMenuService
	logger logger.Logger
}

func NewBuyMenuHandler(s BuyMenuService, l logger.Logger) *BuyMenuHandler {
	return &BuyMenuHandler{
		menus:  s,
		logger: l.Named("handler.buymenu"),
	}
}

// Register 注册路由
func (h *BuyMenuHandler) Register(r gin.IRouter) {
	g := r.Group("/inventory/:userId/buymenu")
	{
		g.GET("", h.Get)
		g.POST("", h.Create)
		g.PUT("", h.Update)
		g.DELETE("", h.Delete)
	}
}

func (h *BuyMenuHandler) Get(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	menu, err := h.menus.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "buy menu")
		return
	}
	c.JSON(http.StatusOK, menu)
}

// Create 以默认配置创建
func (h *BuyMenuHandler) Create(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	menu, err := h.menus.Create(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "buy menu")
		return
	}
	c.JSON(http.StatusCreated, menu)
}

// Update 替换请求中提供的子菜单
func (h *BuyMenuHandler) Update(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var req model.BuyMenuUpdate
	if !web.BindAndValidate(c, &req) {
		return
	}

	ok, err := h.menus.Update(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err, "buy menu")
		return
	}
	if !ok {
		notFound(c, "buy menu")
		return
	}
	web.Success(c, nil)
}

func (h *BuyMenuHandler) Delete(c *gin.Context) {
	userID, err := userIDParam(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ok, err := h.menus.Delete(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "buy menu")
		return
	}
	if !ok {
		notFound(c, "buy menu")
		return
	}
	web.Success(c, nil)
}
