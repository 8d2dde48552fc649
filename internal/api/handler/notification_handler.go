package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// NotificationHandler 通知发件箱，供消息网关拉取
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// ListOutbox 未投递通知
// GET /api/v1/notifications/outbox?recipient=&limit=
func (h *NotificationHandler) ListOutbox(c *gin.Context) {
	var req dto.OutboxRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.notificationSvc.ListOutbox(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// Ack 标记已投递
// POST /api/v1/notifications/ack
func (h *NotificationHandler) Ack(c *gin.Context) {
	var req dto.AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.notificationSvc.Ack(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
