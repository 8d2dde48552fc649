package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/pkg/jwt"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// 与 handler 包的上下文键保持一致
const (
	ctxActorID  = "actor_id"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// ServiceKeyHeader 网关携带 service key 的请求头
const ServiceKeyHeader = "X-Service-Key"

// TokenChecker Token 黑名单查询
type TokenChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token。
// checker 为 nil 时跳过黑名单检查（Redis 不可用）。
func JWTAuth(jwtMgr *jwt.Manager, checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if checker != nil {
			revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Token 已注销")
				c.Abort()
				return
			}
		}

		c.Set(ctxActorID, claims.ActorID)
		c.Set(ctxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ctxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// ServiceKeyAuth 网关调用校验，仅允许持有 service key 的请求
func ServiceKeyAuth(verify func(key string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !verify(c.GetHeader(ServiceKeyHeader)) {
			response.Unauthorized(c, 10001, "service key 无效")
			c.Abort()
			return
		}
		c.Next()
	}
}
