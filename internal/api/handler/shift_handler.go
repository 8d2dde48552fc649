package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// ShiftHandler 考勤模块 HTTP 处理器
type ShiftHandler struct {
	shiftSvc service.ShiftService
}

// NewShiftHandler 创建 ShiftHandler
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// CheckIn 签到
// POST /api/v1/shifts/check-in
func (h *ShiftHandler) CheckIn(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.CheckIn(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// CheckOut 签退
// POST /api/v1/shifts/check-out
func (h *ShiftHandler) CheckOut(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.CheckOut(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Confirm 确认单个班次
// POST /api/v1/shifts/:id/confirm
func (h *ShiftHandler) Confirm(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.shiftSvc.Confirm(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ConfirmAll 批量确认
// POST /api/v1/shifts/confirm-all
func (h *ShiftHandler) ConfirmAll(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ConfirmAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.shiftSvc.ConfirmAll(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ListMine 我的考勤
// GET /api/v1/shifts/me?from=&to=
func (h *ShiftHandler) ListMine(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.list(c, actorID, actorID)
}

// ListForIdentity 员工考勤
// GET /api/v1/directory/identities/:id/shifts?from=&to=
func (h *ShiftHandler) ListForIdentity(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.list(c, actorID, c.Param("id"))
}

func (h *ShiftHandler) list(c *gin.Context, actorID, targetID string) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.shiftSvc.ListForIdentity(c.Request.Context(), actorID, targetID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// ListUnconfirmed 待确认班次
// GET /api/v1/shifts/unconfirmed?store=&from=&to=
func (h *ShiftHandler) ListUnconfirmed(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.shiftSvc.ListUnconfirmed(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// MyStats 我的工时统计
// GET /api/v1/shifts/me/stats?from=&to=
func (h *ShiftHandler) MyStats(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.stats(c, actorID, actorID)
}

// IdentityStats 员工工时统计
// GET /api/v1/directory/identities/:id/stats?from=&to=
func (h *ShiftHandler) IdentityStats(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.stats(c, actorID, c.Param("id"))
}

func (h *ShiftHandler) stats(c *gin.Context, actorID, targetID string) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.shiftSvc.AggregateHours(c.Request.Context(), actorID, targetID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
