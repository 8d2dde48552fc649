package dto

// ── 通知模块 DTO ──

// OutboxRequest 拉取未投递通知
type OutboxRequest struct {
	Recipient string `form:"recipient"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// AckRequest 确认已投递
type AckRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// AckResponse 确认结果
type AckResponse struct {
	Acknowledged int64 `json:"acknowledged"`
}

// NotificationResponse 通知
type NotificationResponse struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	RelatedType string `json:"related_type,omitempty"`
	RelatedID   string `json:"related_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}
