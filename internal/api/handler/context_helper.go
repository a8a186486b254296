package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"purple-port/backend/internal/model"
	"purple-port/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, codeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, codeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, codeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, codeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// tokenMeta 当前 access token 的 jti 与过期时间
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

// resolveTargetUser 确定查询对象：管理角色可指定 user_id，其他角色只能查询本人
func resolveTargetUser(c *gin.Context, requested string) (string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	if requested == "" || requested == userID {
		return userID, true
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", false
	}
	if !model.IsAdminRole(role) {
		response.Forbidden(c, codeForbidden, "只能查询本人数据")
		return "", false
	}
	return requested, true
}

// listScope 列表查询范围：管理角色可不指定 user_id 查看全部，其他角色固定为本人
func listScope(c *gin.Context, requested string) (string, bool) {
	role, ok := MustGetRole(c)
	if !ok {
		return "", false
	}
	if model.IsAdminRole(role) {
		return requested, true
	}
	return resolveTargetUser(c, requested)
}
