package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 通知类型
const (
	NotificationRequestFiled    = "request_filed"
	NotificationRequestResolved = "request_resolved"
)

// Notification 通知发件箱 — 对应 notifications
// 网关拉取后确认投递，DeliveredAt 为空表示尚未投递
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey"                  json:"notification_id"`
	RecipientID    string     `gorm:"type:varchar(64);not null"             json:"recipient_id"`
	Type           string     `gorm:"type:varchar(50);not null"             json:"type"`
	Content        string     `gorm:"type:text;not null"                    json:"content"`
	RelatedType    string     `gorm:"type:varchar(50);not null;default:''"  json:"related_type,omitempty"`
	RelatedID      string     `gorm:"type:varchar(100);not null;default:''" json:"related_id,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// BeforeCreate 生成主键
func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.NotificationID == "" {
		n.NotificationID = uuid.NewString()
	}
	return nil
}
