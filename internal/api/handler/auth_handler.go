package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// ServiceKeyHeader 网关携带 service key 的请求头
const ServiceKeyHeader = "X-Service-Key"

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// IssueToken 网关为聊天用户换取 Access Token
// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dto.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.IssueToken(c.Request.Context(), c.GetHeader(ServiceKeyHeader), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Logout 注销当前 Token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp, ok := mustGetToken(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
