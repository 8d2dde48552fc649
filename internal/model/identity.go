package model

import "time"

// 角色，按权限由低到高
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Identity 员工表 — 对应 identities
//
// IdentityID 为聊天平台的用户 ID，由网关传入，不由本服务生成。
type Identity struct {
	IdentityID  string `gorm:"type:varchar(64);primaryKey"                json:"identity_id"`
	DisplayName string `gorm:"type:varchar(100);not null"                 json:"display_name"`
	PositionID  string `gorm:"type:uuid;not null"                         json:"position_id"`
	StoreID     string `gorm:"type:uuid;not null;index"                   json:"store_id"`
	Role        string `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	BaseModel

	// 关联
	Position *Position `gorm:"foreignKey:PositionID;references:PositionID" json:"position,omitempty"`
	Store    *Store    `gorm:"foreignKey:StoreID;references:StoreID"       json:"store,omitempty"`
}

// TableName 指定表名
func (Identity) TableName() string { return "identities" }

// PositionName 当前职位名称，未加载关联时为空
func (i *Identity) PositionName() string {
	if i.Position == nil {
		return ""
	}
	return i.Position.Name
}

// StoreName 当前门店名称，未加载关联时为空
func (i *Identity) StoreName() string {
	if i.Store == nil {
		return ""
	}
	return i.Store.Name
}

// DirectoryBootstrap 首位注册者认领记录 — 对应 directory_bootstrap
// 表内至多一行，插入成功者成为超级管理员
type DirectoryBootstrap struct {
	Singleton    bool      `gorm:"primaryKey;default:true"            json:"-"`
	SuperAdminID string    `gorm:"type:varchar(64);not null"          json:"super_admin_id"`
	ClaimedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"claimed_at"`
}

// TableName 指定表名
func (DirectoryBootstrap) TableName() string { return "directory_bootstrap" }
