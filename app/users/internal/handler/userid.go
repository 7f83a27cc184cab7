package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
)

var (
	errMissingUserID = errors.New("userId is required")
	errInvalidUserID = errors.New("userId must be a positive integer")
	errMalformedBody = errors.New("malformed request body")
)

// parseUserID 接受 JSON 数字或数字字符串，其余一律视为非法
func parseUserID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errMissingUserID
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, errInvalidUserID
		}
	}

	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidUserID
	}
	return id, nil
}

// readBody 读取请求体，空请求体返回 nil
func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, errMalformedBody
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return body, nil
}

// userIDFromRequest 先取请求体中的 userId，缺失时回退到查询参数。
// body 非空时解码到 dst，dst 需包含 userId 字段
func userIDFromRequest(c *gin.Context, dst interface{ rawUserID() json.RawMessage }) (int64, error) {
	body, err := readBody(c)
	if err != nil {
		return 0, err
	}
	if body != nil {
		if err := json.Unmarshal(body, dst); err != nil {
			return 0, errMalformedBody
		}
	}

	raw := dst.rawUserID()
	if len(raw) == 0 {
		if q, ok := c.GetQuery("userId"); ok {
			raw = json.RawMessage(strconv.Quote(q))
		}
	}
	return parseUserID(raw)
}

// userIDParam 路径参数 :userId
func userIDParam(c *gin.Context) (int64, error) {
	return parseUserID(json.RawMessage(strconv.Quote(c.Param("userId"))))
}
