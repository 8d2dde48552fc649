package dto

// ── 认证模块 DTO ──

// IssueTokenRequest 网关代某个聊天用户换取 Token
type IssueTokenRequest struct {
	ActorID string `json:"actor_id" binding:"required,max=64"`
}

// TokenResponse Token 响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // 有效期（秒）
}
