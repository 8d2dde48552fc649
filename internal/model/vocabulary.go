package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Position 职位表 — 对应 positions
type Position struct {
	PositionID string `gorm:"type:uuid;primaryKey"                  json:"position_id"`
	Name       string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	BaseModel
}

// TableName 指定表名
func (Position) TableName() string { return "positions" }

// BeforeCreate 生成主键
func (p *Position) BeforeCreate(*gorm.DB) error {
	if p.PositionID == "" {
		p.PositionID = uuid.NewString()
	}
	return nil
}

// Store 门店表 — 对应 stores
type Store struct {
	StoreID string `gorm:"type:uuid;primaryKey"                   json:"store_id"`
	Name    string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Address string `gorm:"type:varchar(255);not null;default:''"  json:"address"`
	BaseModel
}

// TableName 指定表名
func (Store) TableName() string { return "stores" }

// BeforeCreate 生成主键
func (s *Store) BeforeCreate(*gorm.DB) error {
	if s.StoreID == "" {
		s.StoreID = uuid.NewString()
	}
	return nil
}
