package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ── 目录模块业务错误 ──

var (
	ErrRegistrationUnavailable    = pkgerrors.New(pkgerrors.KindForbidden, 20003, "暂无可选的职位或门店，请联系管理员创建，或提交管理员申请")
	ErrAlreadyRegistered          = pkgerrors.New(pkgerrors.KindConflict, 20004, "您已注册")
	ErrInvalidVocabulary          = pkgerrors.New(pkgerrors.KindInvalidArgument, 20005, "职位或门店不存在")
	ErrIdentityNotFound           = pkgerrors.New(pkgerrors.KindNotFound, 20006, "员工不存在")
	ErrInvalidRoleTransition      = pkgerrors.New(pkgerrors.KindInvalidTransition, 20007, "角色变更无效")
	ErrProtectedRole              = pkgerrors.New(pkgerrors.KindProtectedRole, 20008, "超级管理员不能被删除")
	ErrLastSuperAdmin             = pkgerrors.New(pkgerrors.KindInvalidTransition, 20009, "至少需要保留一名超级管理员")
	ErrPositionNameExists         = pkgerrors.New(pkgerrors.KindConflict, 20010, "职位名称已存在")
	ErrStoreNameExists            = pkgerrors.New(pkgerrors.KindConflict, 20011, "门店名称已存在")
	ErrPositionNotFound           = pkgerrors.New(pkgerrors.KindNotFound, 20012, "职位不存在")
	ErrStoreNotFound              = pkgerrors.New(pkgerrors.KindNotFound, 20013, "门店不存在")
	ErrInvalidRole                = pkgerrors.New(pkgerrors.KindInvalidArgument, 20014, "角色无效")
	ErrStoreDeletionNeedsApproval = pkgerrors.New(pkgerrors.KindForbidden, 20015, "管理员删除门店需提交申请，由超级管理员审批")
)

// DirectoryService 员工、职位与门店
type DirectoryService interface {
	// Register 首位注册者成为超级管理员，其余为成员
	Register(ctx context.Context, actorID string, req *dto.RegisterRequest) (*dto.IdentityResponse, error)
	Me(ctx context.Context, actorID string) (*dto.IdentityResponse, error)
	GetIdentity(ctx context.Context, actorID, targetID string) (*dto.IdentityResponse, error)
	// ListIdentities 超级管理员可查看全部，管理员只能查看本门店
	ListIdentities(ctx context.Context, actorID string, req *dto.IdentityListRequest) ([]dto.IdentityResponse, error)
	Promote(ctx context.Context, actorID, targetID, toRole string) (*dto.IdentityResponse, error)
	Demote(ctx context.Context, actorID, targetID, toRole string) (*dto.IdentityResponse, error)
	Reassign(ctx context.Context, actorID, targetID string, req *dto.ReassignRequest) (*dto.IdentityResponse, error)

	CreatePosition(ctx context.Context, actorID string, req *dto.CreatePositionRequest) (*dto.PositionResponse, error)
	DeletePosition(ctx context.Context, actorID, name string) error
	ListPositions(ctx context.Context) ([]dto.PositionResponse, error)
	CreateStore(ctx context.Context, actorID string, req *dto.CreateStoreRequest) (*dto.StoreResponse, error)
	// DeleteStore 仅超级管理员可直接删除，管理员需走审批
	DeleteStore(ctx context.Context, actorID, name string) error
	ListStores(ctx context.Context) ([]dto.StoreResponse, error)

	// SeedVocabulary 启动时写入预置职位与门店，已存在的名称保持不变
	SeedVocabulary(ctx context.Context, cfg *config.DirectoryConfig) error
}

type directoryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDirectoryService 创建 DirectoryService 实例
func NewDirectoryService(repo *repository.Repository, logger *zap.Logger) DirectoryService {
	return &directoryService{repo: repo, logger: logger}
}

// ────────────────────── Register ──────────────────────

func (s *directoryService) Register(ctx context.Context, actorID string, req *dto.RegisterRequest) (*dto.IdentityResponse, error) {
	if actorID == "" {
		return nil, ErrNotRegistered
	}

	var role string
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		_, err := txRepo.Identity.GetByID(ctx, actorID)
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		positions, err := txRepo.Position.Count(ctx)
		if err != nil {
			return err
		}
		stores, err := txRepo.Store.Count(ctx)
		if err != nil {
			return err
		}
		if !policy.CanRegister(positions, stores) {
			return ErrRegistrationUnavailable
		}

		position, err := txRepo.Position.GetByName(ctx, req.Position)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidVocabulary
			}
			return err
		}
		store, err := txRepo.Store.GetByName(ctx, req.Store)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidVocabulary
			}
			return err
		}

		// 认领与插入在同一事务中，插入失败时认领一并回滚
		claimed, err := txRepo.Bootstrap.Claim(ctx, actorID)
		if err != nil {
			return err
		}
		role = model.RoleMember
		if claimed {
			role = model.RoleSuperAdmin
		}

		identity := &model.Identity{
			IdentityID:  actorID,
			DisplayName: req.DisplayName,
			PositionID:  position.PositionID,
			StoreID:     store.StoreID,
			Role:        role,
		}
		if err := txRepo.Identity.Create(ctx, identity); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("注册失败", zap.String("actor_id", actorID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("员工注册成功",
		zap.String("actor_id", actorID),
		zap.String("role", role),
		zap.String("store", req.Store),
	)
	return s.Me(ctx, actorID)
}

// ────────────────────── Read ──────────────────────

func (s *directoryService) Me(ctx context.Context, actorID string) (*dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	return toIdentityResponse(actor), nil
}

func (s *directoryService) GetIdentity(ctx context.Context, actorID, targetID string) (*dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.getIdentity(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewIdentity(actor, target) {
		return nil, ErrForbidden
	}
	return toIdentityResponse(target), nil
}

func (s *directoryService) ListIdentities(ctx context.Context, actorID string, req *dto.IdentityListRequest) ([]dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	storeID, err := scopedStoreID(ctx, s.repo, actor, req.Store)
	if err != nil {
		return nil, err
	}

	identities, err := s.repo.Identity.List(ctx, repository.IdentityFilter{StoreID: storeID})
	if err != nil {
		s.logger.Error("列出员工失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.IdentityResponse, 0, len(identities))
	for i := range identities {
		result = append(result, *toIdentityResponse(&identities[i]))
	}
	return result, nil
}

// ────────────────────── Roles ──────────────────────

func (s *directoryService) Promote(ctx context.Context, actorID, targetID, toRole string) (*dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanChangeRole(actor) {
		return nil, ErrForbidden
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		_, err := promoteIdentity(ctx, txRepo, targetID, toRole)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("角色已提升",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.String("role", toRole),
	)
	return s.reload(ctx, targetID)
}

// Demote 降级须保证降级后仍至少有一名超级管理员
func (s *directoryService) Demote(ctx context.Context, actorID, targetID, toRole string) (*dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanChangeRole(actor) {
		return nil, ErrForbidden
	}
	if !policy.IsValidRole(toRole) {
		return nil, ErrInvalidRole
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		target, err := txRepo.Identity.GetByIDForUpdate(ctx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIdentityNotFound
			}
			return err
		}
		if policy.RoleRank(toRole) >= policy.RoleRank(target.Role) {
			return ErrInvalidRoleTransition
		}

		if policy.IsSuperAdmin(target) {
			supers, err := txRepo.Identity.LockSuperAdmins(ctx)
			if err != nil {
				return err
			}
			if len(supers) <= 1 {
				return ErrLastSuperAdmin
			}
		}

		if err := txRepo.Identity.UpdateRole(ctx, targetID, target.Role, toRole); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrInvalidRoleTransition
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("角色已降级",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.String("role", toRole),
	)
	return s.reload(ctx, targetID)
}

// ────────────────────── Reassign ──────────────────────

func (s *directoryService) Reassign(ctx context.Context, actorID, targetID string, req *dto.ReassignRequest) (*dto.IdentityResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	target, err := s.getIdentity(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageStore(actor, target.StoreID) {
		return nil, ErrForbidden
	}

	position, err := s.repo.Position.GetByName(ctx, req.Position)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	store, err := s.repo.Store.GetByName(ctx, req.Store)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	if err := s.repo.Identity.UpdateAssignment(ctx, targetID, position.PositionID, store.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("调整员工归属失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, targetID)
}

// ────────────────────── Positions ──────────────────────

func (s *directoryService) CreatePosition(ctx context.Context, actorID string, req *dto.CreatePositionRequest) (*dto.PositionResponse, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	position := &model.Position{Name: req.Name}
	if err := s.repo.Position.Create(ctx, position); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPositionNameExists
		}
		s.logger.Error("创建职位失败", zap.Error(err))
		return nil, err
	}
	return &dto.PositionResponse{ID: position.PositionID, Name: position.Name}, nil
}

func (s *directoryService) DeletePosition(ctx context.Context, actorID, name string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		position, err := txRepo.Position.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPositionNotFound
			}
			return err
		}

		count, err := txRepo.Identity.CountByPosition(ctx, position.PositionID)
		if err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.NewInUse("职位 "+name, count)
		}
		return txRepo.Position.Delete(ctx, position.PositionID)
	})
}

func (s *directoryService) ListPositions(ctx context.Context) ([]dto.PositionResponse, error) {
	positions, err := s.repo.Position.List(ctx)
	if err != nil {
		s.logger.Error("列出职位失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PositionResponse, 0, len(positions))
	for _, p := range positions {
		result = append(result, dto.PositionResponse{ID: p.PositionID, Name: p.Name})
	}
	return result, nil
}

// ────────────────────── Stores ──────────────────────

func (s *directoryService) CreateStore(ctx context.Context, actorID string, req *dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	store := &model.Store{Name: req.Name, Address: req.Address}
	if err := s.repo.Store.Create(ctx, store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStoreNameExists
		}
		s.logger.Error("创建门店失败", zap.Error(err))
		return nil, err
	}
	return &dto.StoreResponse{ID: store.StoreID, Name: store.Name, Address: store.Address}, nil
}

func (s *directoryService) DeleteStore(ctx context.Context, actorID, name string) error {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if !policy.IsSuperAdmin(actor) {
		if policy.IsAdmin(actor) {
			return ErrStoreDeletionNeedsApproval
		}
		return ErrForbidden
	}

	return s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		return deleteStoreByName(ctx, txRepo, name)
	})
}

func (s *directoryService) ListStores(ctx context.Context) ([]dto.StoreResponse, error) {
	stores, err := s.repo.Store.List(ctx)
	if err != nil {
		s.logger.Error("列出门店失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.StoreResponse, 0, len(stores))
	for _, st := range stores {
		result = append(result, dto.StoreResponse{ID: st.StoreID, Name: st.Name, Address: st.Address})
	}
	return result, nil
}

// ────────────────────── Seed ──────────────────────

func (s *directoryService) SeedVocabulary(ctx context.Context, cfg *config.DirectoryConfig) error {
	for _, name := range cfg.SeedPositions {
		if name == "" {
			continue
		}
		if err := s.repo.Position.EnsureExists(ctx, name); err != nil {
			return err
		}
	}
	for _, st := range cfg.SeedStores {
		if st.Name == "" {
			continue
		}
		if err := s.repo.Store.EnsureExists(ctx, st.Name, st.Address); err != nil {
			return err
		}
	}

	s.logger.Info("预置职位与门店已写入",
		zap.Int("positions", len(cfg.SeedPositions)),
		zap.Int("stores", len(cfg.SeedStores)),
	)
	return nil
}

// ── 辅助函数 ──

func (s *directoryService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return err
	}
	if !policy.IsAdmin(actor) {
		return ErrForbidden
	}
	return nil
}

func (s *directoryService) getIdentity(ctx context.Context, id string) (*model.Identity, error) {
	identity, err := s.repo.Identity.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		s.logger.Error("查询员工失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return identity, nil
}

func (s *directoryService) reload(ctx context.Context, id string) (*dto.IdentityResponse, error) {
	identity, err := s.getIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	return toIdentityResponse(identity), nil
}

// scopedStoreID 解析门店过滤条件
// 管理员固定为本门店，指定其他门店返回 ErrForbidden；超级管理员不指定时返回空（不过滤）
func scopedStoreID(ctx context.Context, repo *repository.Repository, actor *model.Identity, storeName string) (string, error) {
	if storeName == "" {
		if policy.IsSuperAdmin(actor) {
			return "", nil
		}
		return actor.StoreID, nil
	}

	store, err := repo.Store.GetByName(ctx, storeName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrStoreNotFound
		}
		return "", err
	}
	if !policy.CanManageStore(actor, store.StoreID) {
		return "", ErrForbidden
	}
	return store.StoreID, nil
}
