package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/internal/model"
)

// NotificationRepository 通知发件箱数据访问接口
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notes []model.Notification) error
	// ListUndelivered 按创建时间返回未投递通知，recipientID 为空时不过滤
	ListUndelivered(ctx context.Context, recipientID string, limit int) ([]model.Notification, error)
	MarkDelivered(ctx context.Context, ids []string, at time.Time) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) CreateBatch(ctx context.Context, notes []model.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notes).Error
}

func (r *notificationRepo) ListUndelivered(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	db := r.db.WithContext(ctx).Where("delivered_at IS NULL")
	if recipientID != "" {
		db = db.Where("recipient_id = ?", recipientID)
	}

	var notes []model.Notification
	if err := db.Order("created_at ASC").Limit(limit).Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *notificationRepo) MarkDelivered(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("notification_id IN ? AND delivered_at IS NULL", ids).
		Update("delivered_at", at)
	return result.RowsAffected, result.Error
}
