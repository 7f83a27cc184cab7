package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lk2023060901/xdooria-users/app/users/internal/manager"
	"github.com/lk2023060901/xdooria-users/pkg/web"
	weberrors "github.com/lk2023060901/xdooria-users/pkg/web/errors"
)

// writeError 按错误分类写入响应，内部错误不返回细节
func writeError(c *gin.Context, err error, resource string) {
	switch manager.Kind(err) {
	case manager.KindInvalidInput:
		web.Error(c, http.StatusBadRequest, weberrors.CodeInvalidParams, "userId must be a positive integer")
	case manager.KindConflict:
		web.Error(c, http.StatusConflict, weberrors.CodeConflict, resource+" already exists")
	case manager.KindNotFound:
		notFound(c, resource)
	default:
		internalError(c)
	}
}

func badRequest(c *gin.Context, err error) {
	web.Error(c, http.StatusBadRequest, weberrors.CodeInvalidParams, err.Error())
}

func notFound(c *gin.Context, resource string) {
	web.Error(c, http.StatusNotFound, weberrors.CodeNotFound, resource+" not found")
}

func internalError(c *gin.Context) {
	web.Error(c, http.StatusInternalServerError, weberrors.CodeInternalError, "internal server error")
}
