package dto

// ── 目录模块 DTO ──

// RegisterRequest 注册请求，由网关在收集完姓名、职位、门店后一次提交
type RegisterRequest struct {
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Position    string `json:"position"     binding:"required,max=100"`
	Store       string `json:"store"        binding:"required,max=100"`
}

// IdentityResponse 员工信息
type IdentityResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Position    string `json:"position"`
	Store       string `json:"store"`
	StoreID     string `json:"store_id"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

// IdentityListRequest 员工列表查询参数
type IdentityListRequest struct {
	Store string `form:"store"`
}

// ChangeRoleRequest 升降角色请求
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member admin super_admin"`
}

// ReassignRequest 调整职位与门店
type ReassignRequest struct {
	Position string `json:"position" binding:"required,max=100"`
	Store    string `json:"store"    binding:"required,max=100"`
}

// CreatePositionRequest 创建职位
type CreatePositionRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// CreateStoreRequest 创建门店
type CreateStoreRequest struct {
	Name    string `json:"name"    binding:"required,min=1,max=100"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

// PositionResponse 职位
type PositionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StoreResponse 门店
type StoreResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
