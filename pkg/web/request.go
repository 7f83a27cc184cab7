package web

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lk2023060901/xdooria-users/pkg/web/errors"
)

// BindAndValidate 绑定 JSON 请求体并校验，失败时已写入 400 响应
func BindAndValidate(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var errs validator.ValidationErrors
		if stderrors.As(err, &errs) {
			Error(c, http.StatusBadRequest, errors.CodeInvalidParams, errs.Error())
			return false
		}
		Error(c, http.StatusBadRequest, errors.CodeInvalidParams, "invalid request parameters: "+err.Error())
		return false
	}
	return true
}

// GetQuery 获取查询参数，带默认值
func GetQuery(c *gin.Context, key, defaultValue string) string {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	return val
}
