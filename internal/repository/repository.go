package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB
	// 无数据库连接（内存实现）时用于串行化 Transaction
	mu sync.Mutex

	Identity     IdentityRepository
	Bootstrap    BootstrapRepository
	Position     PositionRepository
	Store        StoreRepository
	Shift        ShiftRepository
	Approval     ApprovalRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Identity:     NewIdentityRepo(db),
		Bootstrap:    NewBootstrapRepo(db),
		Position:     NewPositionRepo(db),
		Store:        NewStoreRepo(db),
		Shift:        NewShiftRepo(db),
		Approval:     NewApprovalRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// Transaction 在同一个数据库事务中执行 fn
// fn 返回错误时整体回滚；txRepo 中的所有 Repository 共享该事务连接。
//
// 未绑定数据库时（测试中直接组装的聚合）按进程内互斥串行执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
