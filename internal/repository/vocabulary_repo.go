package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/elecnk-png/timesheet-bot/internal/model"
)

// PositionRepository 职位数据访问接口
type PositionRepository interface {
	Create(ctx context.Context, position *model.Position) error
	// EnsureExists 名称不存在时创建，已存在时不做任何修改
	EnsureExists(ctx context.Context, name string) error
	GetByName(ctx context.Context, name string) (*model.Position, error)
	List(ctx context.Context) ([]model.Position, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type positionRepo struct {
	db *gorm.DB
}

// NewPositionRepo 创建 PositionRepository 实例
func NewPositionRepo(db *gorm.DB) PositionRepository {
	return &positionRepo{db: db}
}

func (r *positionRepo) Create(ctx context.Context, position *model.Position) error {
	return r.db.WithContext(ctx).Create(position).Error
}

func (r *positionRepo) EnsureExists(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&model.Position{Name: name}).Error
}

func (r *positionRepo) GetByName(ctx context.Context, name string) (*model.Position, error) {
	var position model.Position
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&position).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *positionRepo) List(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *positionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Position{}).Count(&count).Error
	return count, err
}

func (r *positionRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("position_id = ?", id).Delete(&model.Position{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StoreRepository 门店数据访问接口
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	// EnsureExists 名称不存在时创建，已存在时不做任何修改
	EnsureExists(ctx context.Context, name, address string) error
	GetByID(ctx context.Context, id string) (*model.Store, error)
	GetByName(ctx context.Context, name string) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepo 创建 StoreRepository 实例
func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) EnsureExists(ctx context.Context, name, address string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&model.Store{Name: name, Address: address}).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("store_id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) GetByName(ctx context.Context, name string) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) List(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *storeRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Store{}).Count(&count).Error
	return count, err
}

func (r *storeRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("store_id = ?", id).Delete(&model.Store{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
