// Package policy 角色与权限判断
//
// 所有函数都是纯函数：只读 actor 与参数，不访问存储。actor 为 nil 表示未注册。
package policy

import "github.com/elecnk-png/timesheet-bot/internal/model"

var roleRank = map[string]int{
	model.RoleMember:     1,
	model.RoleAdmin:      2,
	model.RoleSuperAdmin: 3,
}

// RoleRank 角色等级，未知角色为 0
func RoleRank(role string) int {
	return roleRank[role]
}

// IsValidRole 是否为已知角色
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// IsMember 已注册即为成员
func IsMember(actor *model.Identity) bool {
	return actor != nil && IsValidRole(actor.Role)
}

// IsAdmin 管理员或超级管理员
func IsAdmin(actor *model.Identity) bool {
	return actor != nil && RoleRank(actor.Role) >= RoleRank(model.RoleAdmin)
}

// IsSuperAdmin 超级管理员
func IsSuperAdmin(actor *model.Identity) bool {
	return actor != nil && actor.Role == model.RoleSuperAdmin
}

// CanRegister 职位与门店都非空时才允许注册
func CanRegister(positionCount, storeCount int64) bool {
	return positionCount > 0 && storeCount > 0
}

// CanManageStore 超级管理员可管理任意门店，管理员只能管理自己所在门店
func CanManageStore(actor *model.Identity, storeID string) bool {
	if IsSuperAdmin(actor) {
		return true
	}
	return IsAdmin(actor) && actor.StoreID == storeID
}

// CanViewIdentity 本人、超级管理员、同门店管理员可以查看
func CanViewIdentity(actor, target *model.Identity) bool {
	if actor == nil || target == nil {
		return false
	}
	if actor.IdentityID == target.IdentityID {
		return true
	}
	return CanManageStore(actor, target.StoreID)
}

// CanFileDeletion 管理员及以上可以发起删除员工或门店的申请
func CanFileDeletion(actor *model.Identity) bool {
	return IsAdmin(actor)
}

// CanResolve 只有超级管理员可以处理申请
func CanResolve(actor *model.Identity) bool {
	return IsSuperAdmin(actor)
}

// CanChangeRole 只有超级管理员可以直接升降角色
func CanChangeRole(actor *model.Identity) bool {
	return IsSuperAdmin(actor)
}
