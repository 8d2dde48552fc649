package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elecnk-png/timesheet-bot/internal/model"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ShiftFilter 班次查询条件，零值字段不参与过滤
// From/To 为闭区间，按 shift_date 比较
type ShiftFilter struct {
	IdentityID string
	StoreID    string
	From       *time.Time
	To         *time.Time
	Status     string
	Confirmed  *bool
}

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	// Create 插入班次，(identity_id, shift_date) 冲突时返回 gorm.ErrDuplicatedKey
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetByIdentityAndDate(ctx context.Context, identityID string, date time.Time) (*model.Shift, error)
	// GetLatestOpen 返回签到时间最晚的未签退班次
	GetLatestOpen(ctx context.Context, identityID string) (*model.Shift, error)
	// Close 仅当班次仍为 open 时签退，否则返回 ErrOptimisticLock
	Close(ctx context.Context, shiftID string, checkOut time.Time, hours decimal.Decimal, note string) error
	// Confirm 确认单个已完成班次，返回是否为本次新确认
	Confirm(ctx context.Context, shiftID, confirmedBy string, at time.Time) (bool, error)
	// ConfirmCompleted 批量确认符合条件的已完成未确认班次，返回新确认数量
	ConfirmCompleted(ctx context.Context, filter ShiftFilter, confirmedBy string, at time.Time) (int64, error)
	List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error)
	DeleteByIdentity(ctx context.Context, identityID string) (int64, error)
}

// shiftRepo ShiftRepository 的 GORM 实现
type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Preload("Identity").
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetByIdentityAndDate(ctx context.Context, identityID string, date time.Time) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND shift_date = ?", identityID, date).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetLatestOpen(ctx context.Context, identityID string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("identity_id = ? AND status = ?", identityID, model.ShiftStatusOpen).
		Order("check_in DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) Close(ctx context.Context, shiftID string, checkOut time.Time, hours decimal.Decimal, note string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND status = ?", shiftID, model.ShiftStatusOpen).
		Updates(map[string]interface{}{
			"status":     model.ShiftStatusCompleted,
			"check_out":  checkOut,
			"hours":      hours,
			"note":       note,
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

func (r *shiftRepo) Confirm(ctx context.Context, shiftID, confirmedBy string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("shift_id = ? AND status = ? AND confirmed = ?", shiftID, model.ShiftStatusCompleted, false).
		Updates(confirmColumns(confirmedBy, at))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *shiftRepo) ConfirmCompleted(ctx context.Context, filter ShiftFilter, confirmedBy string, at time.Time) (int64, error) {
	filter.Status = model.ShiftStatusCompleted
	unconfirmed := false
	filter.Confirmed = &unconfirmed

	result := r.applyFilter(r.db.WithContext(ctx).Model(&model.Shift{}), filter).
		Updates(confirmColumns(confirmedBy, at))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *shiftRepo) List(ctx context.Context, filter ShiftFilter) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.applyFilter(r.db.WithContext(ctx).Model(&model.Shift{}), filter).
		Preload("Identity.Position").
		Preload("Identity.Store").
		Order("shift_date ASC, check_in ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, err
	}
	return shifts, nil
}

func (r *shiftRepo) DeleteByIdentity(ctx context.Context, identityID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Delete(&model.Shift{})
	return result.RowsAffected, result.Error
}

func (r *shiftRepo) applyFilter(db *gorm.DB, filter ShiftFilter) *gorm.DB {
	if filter.IdentityID != "" {
		db = db.Where("shifts.identity_id = ?", filter.IdentityID)
	}
	if filter.StoreID != "" {
		storeMembers := r.db.Model(&model.Identity{}).
			Select("identity_id").
			Where("store_id = ?", filter.StoreID)
		db = db.Where("shifts.identity_id IN (?)", storeMembers)
	}
	if filter.From != nil {
		db = db.Where("shifts.shift_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("shifts.shift_date <= ?", *filter.To)
	}
	if filter.Status != "" {
		db = db.Where("shifts.status = ?", filter.Status)
	}
	if filter.Confirmed != nil {
		db = db.Where("shifts.confirmed = ?", *filter.Confirmed)
	}
	return db
}

func confirmColumns(confirmedBy string, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"confirmed":    true,
		"confirmed_by": confirmedBy,
		"confirmed_at": at,
		"updated_at":   gorm.Expr("NOW()"),
	}
}
