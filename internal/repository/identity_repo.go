package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elecnk-png/timesheet-bot/internal/model"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// IdentityFilter 员工列表过滤条件，空字段不参与过滤
type IdentityFilter struct {
	StoreID string
	Role    string
}

// IdentityRepository 员工数据访问接口
type IdentityRepository interface {
	Create(ctx context.Context, identity *model.Identity) error
	GetByID(ctx context.Context, id string) (*model.Identity, error)
	// GetByIDForUpdate 使用 SELECT ... FOR UPDATE 锁定员工行，须在事务内调用
	GetByIDForUpdate(ctx context.Context, id string) (*model.Identity, error)
	List(ctx context.Context, filter IdentityFilter) ([]model.Identity, error)
	// LockSuperAdmins 锁定全部超级管理员行并返回，须在事务内调用
	LockSuperAdmins(ctx context.Context) ([]model.Identity, error)
	// UpdateRole 仅当当前角色仍为 fromRole 时更新，否则返回 ErrOptimisticLock
	UpdateRole(ctx context.Context, id, fromRole, toRole string) error
	UpdateAssignment(ctx context.Context, id, positionID, storeID string) error
	Delete(ctx context.Context, id string) error
	CountByStore(ctx context.Context, storeID string) (int64, error)
	CountByPosition(ctx context.Context, positionID string) (int64, error)
}

// identityRepo IdentityRepository 的 GORM 实现
type identityRepo struct {
	db *gorm.DB
}

// NewIdentityRepo 创建 IdentityRepository 实例
func NewIdentityRepo(db *gorm.DB) IdentityRepository {
	return &identityRepo{db: db}
}

func (r *identityRepo) Create(ctx context.Context, identity *model.Identity) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(identity).Error
}

func (r *identityRepo) GetByID(ctx context.Context, id string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Preload("Position").
		Preload("Store").
		Where("identity_id = ?", id).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Identity, error) {
	var identity model.Identity
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("identity_id = ?", id).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *identityRepo) List(ctx context.Context, filter IdentityFilter) ([]model.Identity, error) {
	db := r.db.WithContext(ctx).Model(&model.Identity{})
	if filter.StoreID != "" {
		db = db.Where("store_id = ?", filter.StoreID)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}

	var identities []model.Identity
	if err := db.Preload("Position").
		Preload("Store").
		Order("display_name ASC, identity_id ASC").
		Find(&identities).Error; err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *identityRepo) LockSuperAdmins(ctx context.Context) ([]model.Identity, error) {
	var identities []model.Identity
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", model.RoleSuperAdmin).
		Order("identity_id ASC").
		Find(&identities).Error
	if err != nil {
		return nil, err
	}
	return identities, nil
}

func (r *identityRepo) UpdateRole(ctx context.Context, id, fromRole, toRole string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("identity_id = ? AND role = ?", id, fromRole).
		Updates(map[string]interface{}{
			"role":       toRole,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *identityRepo) UpdateAssignment(ctx context.Context, id, positionID, storeID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("identity_id = ?", id).
		Updates(map[string]interface{}{
			"position_id": positionID,
			"store_id":    storeID,
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("identity_id = ?", id).
		Delete(&model.Identity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *identityRepo) CountByStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("store_id = ?", storeID).
		Count(&count).Error
	return count, err
}

func (r *identityRepo) CountByPosition(ctx context.Context, positionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Identity{}).
		Where("position_id = ?", positionID).
		Count(&count).Error
	return count, err
}
