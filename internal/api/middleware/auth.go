package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"gleamops/backend/pkg/jwt"
	"gleamops/backend/pkg/redis"
	"gleamops/backend/pkg/response"
)

// JWTAuth JWT 认证中间件
// 解析 Authorization: Bearer <token>，校验通过后将身份信息注入 gin.Context：
//
//	user_id / tenant_id / role / staff_id
//
// 仅接受 access 类型 Token；已登出（jti 在 Redis 黑名单）的 Token 拒绝。
// rdb 为 nil 时跳过黑名单检查（单机开发模式降级）。
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "未提供认证信息")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, 10002, "认证格式错误")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, 10002, "Token 已过期")
			} else {
				response.Unauthorized(c, 10002, "Token 无效")
			}
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "Token 类型错误")
			c.Abort()
			return
		}

		if rdb != nil {
			blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis 出错时降级放行，仅黑名单命中才拒绝
			if err == nil && blacklisted {
				response.Unauthorized(c, 10002, "Token 已失效，请重新登录")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("tenant_id", claims.TenantID)
		c.Set("role", claims.Role)
		c.Set("staff_id", claims.StaffID)
		c.Set("claims", claims)

		c.Next()
	}
}

// RoleAuth 角色鉴权中间件，必须在 JWTAuth 之后使用
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		roleStr, _ := role.(string)
		for _, allowed := range allowedRoles {
			if roleStr == allowed {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "权限不足")
		c.Abort()
	}
}

// [自证通过] internal/api/middleware/auth.go
