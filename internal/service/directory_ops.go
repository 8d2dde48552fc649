package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// 以下操作由目录直接调用，也由审批通过后的副作用调用。
// 调用方负责权限校验并传入事务内的 txRepo；前置条件不满足时在任何写入之前返回错误。

// promoteIdentity 将员工提升到 toRole，toRole 必须严格高于当前角色
func promoteIdentity(ctx context.Context, txRepo *repository.Repository, targetID, toRole string) (*model.Identity, error) {
	if !policy.IsValidRole(toRole) {
		return nil, ErrInvalidRole
	}
	target, err := txRepo.Identity.GetByIDForUpdate(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	if policy.RoleRank(toRole) <= policy.RoleRank(target.Role) {
		return nil, ErrInvalidRoleTransition
	}

	if err := txRepo.Identity.UpdateRole(ctx, targetID, target.Role, toRole); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrInvalidRoleTransition
		}
		return nil, err
	}
	target.Role = toRole
	return target, nil
}

// removeIdentity 删除员工及其全部班次，返回删除的班次数
func removeIdentity(ctx context.Context, txRepo *repository.Repository, targetID string) (int64, error) {
	target, err := txRepo.Identity.GetByIDForUpdate(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrIdentityNotFound
		}
		return 0, err
	}
	if policy.IsSuperAdmin(target) {
		return 0, ErrProtectedRole
	}

	removed, err := txRepo.Shift.DeleteByIdentity(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if err := txRepo.Identity.Delete(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrIdentityNotFound
		}
		return 0, err
	}
	return removed, nil
}

// deleteStoreByName 删除无人引用的门店
func deleteStoreByName(ctx context.Context, txRepo *repository.Repository, name string) error {
	store, err := txRepo.Store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}

	count, err := txRepo.Identity.CountByStore(ctx, store.StoreID)
	if err != nil {
		return err
	}
	if count > 0 {
		return pkgerrors.NewInUse("门店 "+name, count)
	}

	if err := txRepo.Store.Delete(ctx, store.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}
	return nil
}
