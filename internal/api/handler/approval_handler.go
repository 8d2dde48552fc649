package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// ApprovalHandler 审批模块 HTTP 处理器
type ApprovalHandler struct {
	approvalSvc service.ApprovalService
}

// NewApprovalHandler 创建 ApprovalHandler
func NewApprovalHandler(approvalSvc service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// FileAdminCandidacy 申请成为管理员
// POST /api/v1/approvals/admin-candidacy
func (h *ApprovalHandler) FileAdminCandidacy(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.approvalSvc.FileAdminCandidacy(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// FileDeletion 申请删除员工或门店
// POST /api/v1/approvals/deletion
func (h *ApprovalHandler) FileDeletion(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.FileDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.approvalSvc.FileDeletion(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// Resolve 处理申请
// POST /api/v1/approvals/:id/resolve
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.approvalSvc.Resolve(c.Request.Context(), actorID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// List 申请列表
// GET /api/v1/approvals?status=
func (h *ApprovalHandler) List(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ApprovalListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.approvalSvc.List(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// Get 申请详情
// GET /api/v1/approvals/:id
func (h *ApprovalHandler) Get(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.approvalSvc.Get(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}
