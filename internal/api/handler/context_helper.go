package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pfe-hub/backend/internal/api/validation"
	pkgerrors "pfe-hub/backend/pkg/errors"
	"pfe-hub/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// MustGetCaller 同时提取 user_id 与 role
func MustGetCaller(c *gin.Context) (string, string, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", "", false
	}
	return id, role, true
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustParam 读取路径参数，为空时写入 400
func mustParam(c *gin.Context, name, label string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, label+"不能为空")
		return "", false
	}
	return v, true
}

// badBinding 参数绑定失败：校验错误附带中文明细
func badBinding(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	if details := validation.Translate(err); details != "" {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", details)
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}

// handleCommonError 各模块共用的错误映射；未识别的错误返回 false
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10009, "数据已被他人修改，请刷新后重试")
	case pkgerrors.IsForeignKeyViolation(err):
		response.Conflict(c, 10010, "存在关联数据，无法完成操作")
	case pkgerrors.IsUniqueViolation(err):
		response.Conflict(c, 10011, "数据重复")
	default:
		return false
	}
	return true
}
