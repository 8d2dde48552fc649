package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

// DirectoryHandler 员工、职位与门店 HTTP 处理器
type DirectoryHandler struct {
	dirSvc service.DirectoryService
}

// NewDirectoryHandler 创建 DirectoryHandler
func NewDirectoryHandler(dirSvc service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{dirSvc: dirSvc}
}

// Register 注册
// POST /api/v1/directory/register
func (h *DirectoryHandler) Register(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.dirSvc.Register(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// Me 当前员工信息
// GET /api/v1/directory/me
func (h *DirectoryHandler) Me(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.dirSvc.Me(c.Request.Context(), actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ListIdentities 员工列表
// GET /api/v1/directory/identities?store=
func (h *DirectoryHandler) ListIdentities(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.IdentityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.dirSvc.ListIdentities(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// GetIdentity 员工详情
// GET /api/v1/directory/identities/:id
func (h *DirectoryHandler) GetIdentity(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	result, err := h.dirSvc.GetIdentity(c.Request.Context(), actorID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Promote 提升角色
// POST /api/v1/directory/identities/:id/promote
func (h *DirectoryHandler) Promote(c *gin.Context) {
	h.changeRole(c, h.dirSvc.Promote)
}

// Demote 降低角色
// POST /api/v1/directory/identities/:id/demote
func (h *DirectoryHandler) Demote(c *gin.Context) {
	h.changeRole(c, h.dirSvc.Demote)
}

func (h *DirectoryHandler) changeRole(c *gin.Context, op func(ctx context.Context, actorID, targetID, toRole string) (*dto.IdentityResponse, error)) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := op(c.Request.Context(), actorID, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// Reassign 调整职位与门店
// PUT /api/v1/directory/identities/:id/assignment
func (h *DirectoryHandler) Reassign(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.dirSvc.Reassign(c.Request.Context(), actorID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, result)
}

// ────────────────────── Positions ──────────────────────

// ListPositions 职位列表，注册前也可查询
// GET /api/v1/positions
func (h *DirectoryHandler) ListPositions(c *gin.Context) {
	list, err := h.dirSvc.ListPositions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// CreatePosition 创建职位
// POST /api/v1/positions
func (h *DirectoryHandler) CreatePosition(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.CreatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.dirSvc.CreatePosition(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// DeletePosition 删除职位
// DELETE /api/v1/positions/:name
func (h *DirectoryHandler) DeletePosition(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	if err := h.dirSvc.DeletePosition(c.Request.Context(), actorID, c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── Stores ──────────────────────

// ListStores 门店列表，注册前也可查询
// GET /api/v1/stores
func (h *DirectoryHandler) ListStores(c *gin.Context) {
	list, err := h.dirSvc.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, list, len(list))
}

// CreateStore 创建门店
// POST /api/v1/stores
func (h *DirectoryHandler) CreateStore(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.dirSvc.CreateStore(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

// DeleteStore 删除门店（仅超级管理员）
// DELETE /api/v1/stores/:name
func (h *DirectoryHandler) DeleteStore(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	if err := h.dirSvc.DeleteStore(c.Request.Context(), actorID, c.Param("name")); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, nil)
}
