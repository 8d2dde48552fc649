package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elecnk-png/timesheet-bot/internal/model"
)

// BootstrapRepository 首位注册者认领
type BootstrapRepository interface {
	// Claim 尝试认领，仅第一次调用返回 true
	Claim(ctx context.Context, identityID string) (bool, error)
	Get(ctx context.Context) (*model.DirectoryBootstrap, error)
}

type bootstrapRepo struct {
	db *gorm.DB
}

// NewBootstrapRepo 创建 BootstrapRepository 实例
func NewBootstrapRepo(db *gorm.DB) BootstrapRepository {
	return &bootstrapRepo{db: db}
}

// Claim INSERT ... ON CONFLICT DO NOTHING，并发认领时只有一个事务插入成功
func (r *bootstrapRepo) Claim(ctx context.Context, identityID string) (bool, error) {
	row := &model.DirectoryBootstrap{Singleton: true, SuperAdminID: identityID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *bootstrapRepo) Get(ctx context.Context) (*model.DirectoryBootstrap, error) {
	var row model.DirectoryBootstrap
	if err := r.db.WithContext(ctx).Where("singleton = ?", true).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
