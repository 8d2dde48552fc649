package dto

// ── 审批模块 DTO ──

// FileDeletionRequest 删除员工或门店的申请
// kind=delete_employee 时 target_ref 为员工 ID，kind=delete_store 时为门店名称
type FileDeletionRequest struct {
	Kind      string `json:"kind"       binding:"required,oneof=delete_employee delete_store"`
	TargetRef string `json:"target_ref" binding:"required,max=100"`
}

// ResolveRequest 审批决定
type ResolveRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approve reject"`
}

// ApprovalListRequest 申请列表查询参数
type ApprovalListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ApprovalResponse 申请
type ApprovalResponse struct {
	ID          string `json:"id"`
	RequesterID string `json:"requester_id"`
	Kind        string `json:"kind"`
	TargetRef   string `json:"target_ref"`
	Status      string `json:"status"`
	ResolvedBy  string `json:"resolved_by,omitempty"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}
