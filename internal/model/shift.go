package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 班次状态
const (
	ShiftStatusOpen      = "open"
	ShiftStatusCompleted = "completed"
)

// NoteAnomalousDuration 签退时长不为正时写入 note
const NoteAnomalousDuration = "anomalous_duration"

// Shift 班次表 — 对应 shifts
// (identity_id, shift_date) 唯一：每人每天至多一条
type Shift struct {
	ShiftID     string              `gorm:"type:uuid;primaryKey"                      json:"shift_id"`
	IdentityID  string              `gorm:"type:varchar(64);not null"                 json:"identity_id"`
	ShiftDate   time.Time           `gorm:"type:date;not null"                        json:"shift_date"`
	Status      string              `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	CheckIn     time.Time           `gorm:"not null"                                  json:"check_in"`
	CheckOut    *time.Time          `                                                 json:"check_out,omitempty"`
	Hours       decimal.NullDecimal `gorm:"type:numeric(6,2)"                         json:"hours"`
	Confirmed   bool                `gorm:"not null;default:false"                    json:"confirmed"`
	ConfirmedBy *string             `gorm:"type:varchar(64)"                          json:"confirmed_by,omitempty"`
	ConfirmedAt *time.Time          `                                                 json:"confirmed_at,omitempty"`
	Note        string              `gorm:"type:varchar(255);not null;default:''"     json:"note"`
	BaseModel

	// 关联
	Identity *Identity `gorm:"foreignKey:IdentityID;references:IdentityID" json:"identity,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// BeforeCreate 生成主键
func (s *Shift) BeforeCreate(*gorm.DB) error {
	if s.ShiftID == "" {
		s.ShiftID = uuid.NewString()
	}
	return nil
}

// IsOpen 是否尚未签退
func (s *Shift) IsOpen() bool { return s.Status == ShiftStatusOpen }
