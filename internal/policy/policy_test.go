package policy

import (
	"testing"

	"github.com/elecnk-png/timesheet-bot/internal/model"
)

func ident(id, role, store string) *model.Identity {
	return &model.Identity{IdentityID: id, Role: role, StoreID: store}
}

func TestRolePredicates(t *testing.T) {
	member := ident("m", model.RoleMember, "north")
	admin := ident("a", model.RoleAdmin, "north")
	root := ident("r", model.RoleSuperAdmin, "south")

	tests := []struct {
		name  string
		actor *model.Identity
		want  [3]bool // IsMember, IsAdmin, IsSuperAdmin
	}{
		{"未注册", nil, [3]bool{false, false, false}},
		{"成员", member, [3]bool{true, false, false}},
		{"管理员", admin, [3]bool{true, true, false}},
		{"超级管理员", root, [3]bool{true, true, true}},
		{"未知角色", ident("x", "guest", "north"), [3]bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := [3]bool{IsMember(tt.actor), IsAdmin(tt.actor), IsSuperAdmin(tt.actor)}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestRoleRank_Ordering(t *testing.T) {
	if !(RoleRank(model.RoleMember) < RoleRank(model.RoleAdmin) &&
		RoleRank(model.RoleAdmin) < RoleRank(model.RoleSuperAdmin)) {
		t.Error("期望 member < admin < super_admin")
	}
	if RoleRank("guest") != 0 || IsValidRole("guest") {
		t.Error("未知角色等级应为 0")
	}
}

func TestCanRegister(t *testing.T) {
	if CanRegister(0, 1) || CanRegister(1, 0) || CanRegister(0, 0) {
		t.Error("职位或门店为空时不应允许注册")
	}
	if !CanRegister(1, 1) {
		t.Error("职位与门店都非空时应允许注册")
	}
}

func TestCanManageStore(t *testing.T) {
	admin := ident("a", model.RoleAdmin, "north")
	root := ident("r", model.RoleSuperAdmin, "south")
	member := ident("m", model.RoleMember, "north")

	if !CanManageStore(admin, "north") {
		t.Error("管理员应能管理本门店")
	}
	if CanManageStore(admin, "south") {
		t.Error("管理员不应管理其他门店")
	}
	if !CanManageStore(root, "north") {
		t.Error("超级管理员应能管理任意门店")
	}
	if CanManageStore(member, "north") {
		t.Error("成员不应管理门店")
	}
	if CanManageStore(nil, "north") {
		t.Error("未注册用户不应管理门店")
	}
}

func TestCanViewIdentity(t *testing.T) {
	alice := ident("alice", model.RoleMember, "north")
	bob := ident("bob", model.RoleMember, "north")
	northAdmin := ident("na", model.RoleAdmin, "north")
	southAdmin := ident("sa", model.RoleAdmin, "south")

	if !CanViewIdentity(alice, alice) {
		t.Error("本人应可查看")
	}
	if CanViewIdentity(alice, bob) {
		t.Error("成员不应查看他人")
	}
	if !CanViewIdentity(northAdmin, bob) {
		t.Error("同门店管理员应可查看")
	}
	if CanViewIdentity(southAdmin, bob) {
		t.Error("其他门店管理员不应查看")
	}
}

func TestPrivilegedActions(t *testing.T) {
	member := ident("m", model.RoleMember, "north")
	admin := ident("a", model.RoleAdmin, "north")
	root := ident("r", model.RoleSuperAdmin, "north")

	if CanFileDeletion(member) || !CanFileDeletion(admin) || !CanFileDeletion(root) {
		t.Error("删除申请应限管理员及以上")
	}
	if CanResolve(admin) || !CanResolve(root) {
		t.Error("审批应限超级管理员")
	}
	if CanChangeRole(admin) || !CanChangeRole(root) {
		t.Error("角色变更应限超级管理员")
	}
}
