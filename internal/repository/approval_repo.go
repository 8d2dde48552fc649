package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elecnk-png/timesheet-bot/internal/model"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ApprovalFilter 申请列表过滤条件
type ApprovalFilter struct {
	RequesterID string
	Kind        string
	Status      string
}

// ApprovalRepository 审批申请数据访问接口
type ApprovalRepository interface {
	// Create 插入申请，同一 (kind, target_ref) 已有待处理申请时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, req *model.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*model.ApprovalRequest, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 锁定申请行，须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.ApprovalRequest, error)
	// Resolve 仅当申请仍为 pending 时写入终态，否则返回 ErrOptimisticLock
	Resolve(ctx context.Context, id, status, resolvedBy string, at time.Time) error
	List(ctx context.Context, filter ApprovalFilter) ([]model.ApprovalRequest, error)
}

type approvalRepo struct {
	db *gorm.DB
}

// NewApprovalRepo 创建 ApprovalRepository 实例
func NewApprovalRepo(db *gorm.DB) ApprovalRepository {
	return &approvalRepo{db: db}
}

func (r *approvalRepo) Create(ctx context.Context, req *model.ApprovalRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *approvalRepo) GetByID(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := r.db.WithContext(ctx).Where("request_id = ?", id).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepo) Resolve(ctx context.Context, id, status, resolvedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ApprovalRequest{}).
		Where("request_id = ? AND status = ?", id, model.RequestStatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolvedBy,
			"resolved_at": at,
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *approvalRepo) List(ctx context.Context, filter ApprovalFilter) ([]model.ApprovalRequest, error) {
	db := r.db.WithContext(ctx).Model(&model.ApprovalRequest{})
	if filter.RequesterID != "" {
		db = db.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.Kind != "" {
		db = db.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var reqs []model.ApprovalRequest
	if err := db.Order("created_at ASC").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
