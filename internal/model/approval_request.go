package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 申请类型
const (
	RequestKindAdminCandidacy = "admin_candidacy"
	RequestKindDeleteEmployee = "delete_employee"
	RequestKindDeleteStore    = "delete_store"
)

// 申请状态，approved 与 rejected 为终态
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// ApprovalRequest 审批申请表 — 对应 approval_requests
//
// TargetRef 按类型解释：admin_candidacy 与 delete_employee 为员工 ID，delete_store 为门店名称。
type ApprovalRequest struct {
	RequestID   string     `gorm:"type:uuid;primaryKey"                        json:"request_id"`
	RequesterID string     `gorm:"type:varchar(64);not null"                   json:"requester_id"`
	Kind        string     `gorm:"type:varchar(30);not null"                   json:"kind"`
	TargetRef   string     `gorm:"type:varchar(100);not null"                  json:"target_ref"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ResolvedBy  *string    `gorm:"type:varchar(64)"                            json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (ApprovalRequest) TableName() string { return "approval_requests" }

// BeforeCreate 生成主键
func (r *ApprovalRequest) BeforeCreate(*gorm.DB) error {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	return nil
}

// IsPending 是否待处理
func (r *ApprovalRequest) IsPending() bool { return r.Status == RequestStatusPending }
