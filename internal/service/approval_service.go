package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ── 审批模块业务错误 ──

var (
	ErrAlreadyPrivileged  = pkgerrors.New(pkgerrors.KindConflict, 22001, "您已是管理员")
	ErrDuplicatePending   = pkgerrors.New(pkgerrors.KindConflict, 22002, "已有相同的申请待处理")
	ErrRequestNotFound    = pkgerrors.New(pkgerrors.KindNotFound, 22003, "申请不存在")
	ErrNotPending         = pkgerrors.New(pkgerrors.KindInvalidTransition, 22004, "申请已处理")
	ErrInvalidRequestKind = pkgerrors.New(pkgerrors.KindInvalidArgument, 22005, "申请类型无效")
	ErrInvalidDecision    = pkgerrors.New(pkgerrors.KindInvalidArgument, 22006, "审批决定无效")
)

// 审批决定
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ApprovalService 管理员申请与删除申请
//
// 状态机：pending --approve--> approved，pending --reject--> rejected，两者均为终态。
// 通过时的副作用与状态变更在同一事务内执行，副作用失败则申请保持 pending。
type ApprovalService interface {
	FileAdminCandidacy(ctx context.Context, actorID string) (*dto.ApprovalResponse, error)
	FileDeletion(ctx context.Context, actorID string, req *dto.FileDeletionRequest) (*dto.ApprovalResponse, error)
	Resolve(ctx context.Context, actorID, requestID string, req *dto.ResolveRequest) (*dto.ApprovalResponse, error)
	// List 超级管理员查看全部，其他人只能查看自己发起的申请
	List(ctx context.Context, actorID string, req *dto.ApprovalListRequest) ([]dto.ApprovalResponse, error)
	Get(ctx context.Context, actorID, requestID string) (*dto.ApprovalResponse, error)
}

type approvalService struct {
	repo     *repository.Repository
	notifier NotificationService
	clock    clock.Clock
	logger   *zap.Logger
}

// NewApprovalService 创建 ApprovalService 实例
func NewApprovalService(repo *repository.Repository, notifier NotificationService, clk clock.Clock, logger *zap.Logger) ApprovalService {
	return &approvalService{repo: repo, notifier: notifier, clock: clk, logger: logger}
}

// ────────────────────── File ──────────────────────

func (s *approvalService) FileAdminCandidacy(ctx context.Context, actorID string) (*dto.ApprovalResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if policy.IsAdmin(actor) {
		return nil, ErrAlreadyPrivileged
	}
	return s.file(ctx, actor, model.RequestKindAdminCandidacy, actor.IdentityID)
}

func (s *approvalService) FileDeletion(ctx context.Context, actorID string, req *dto.FileDeletionRequest) (*dto.ApprovalResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanFileDeletion(actor) {
		return nil, ErrForbidden
	}

	switch req.Kind {
	case model.RequestKindDeleteEmployee:
		target, err := s.repo.Identity.GetByID(ctx, req.TargetRef)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrIdentityNotFound
			}
			return nil, err
		}
		if policy.IsSuperAdmin(target) {
			return nil, ErrProtectedRole
		}
	case model.RequestKindDeleteStore:
		if _, err := s.repo.Store.GetByName(ctx, req.TargetRef); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStoreNotFound
			}
			return nil, err
		}
	default:
		return nil, ErrInvalidRequestKind
	}

	return s.file(ctx, actor, req.Kind, req.TargetRef)
}

// file 插入申请并通知全部超级管理员，权限由调用方校验
func (s *approvalService) file(ctx context.Context, actor *model.Identity, kind, targetRef string) (*dto.ApprovalResponse, error) {
	req := &model.ApprovalRequest{
		RequesterID: actor.IdentityID,
		Kind:        kind,
		TargetRef:   targetRef,
		Status:      model.RequestStatusPending,
	}
	req.CreatedAt = s.clock.Now()

	// 部分唯一索引 (kind, target_ref) WHERE status='pending' 保证同一目标只有一条待处理申请
	if err := s.repo.Approval.Create(ctx, req); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePending
		}
		s.logger.Error("创建申请失败", zap.String("kind", kind), zap.Error(err))
		return nil, err
	}

	s.logger.Info("提交申请",
		zap.String("request_id", req.RequestID),
		zap.String("requester_id", actor.IdentityID),
		zap.String("kind", kind),
		zap.String("target_ref", targetRef),
	)

	s.notifySuperAdmins(ctx, req, actor)
	return toApprovalResponse(req), nil
}

// ────────────────────── Resolve ──────────────────────

func (s *approvalService) Resolve(ctx context.Context, actorID, requestID string, in *dto.ResolveRequest) (*dto.ApprovalResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanResolve(actor) {
		return nil, ErrForbidden
	}

	var status string
	switch in.Decision {
	case DecisionApprove:
		status = model.RequestStatusApproved
	case DecisionReject:
		status = model.RequestStatusRejected
	default:
		return nil, ErrInvalidDecision
	}

	var resolved *model.ApprovalRequest
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		req, err := txRepo.Approval.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if !req.IsPending() {
			return ErrNotPending
		}

		if status == model.RequestStatusApproved {
			if err := s.apply(ctx, txRepo, req); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if err := txRepo.Approval.Resolve(ctx, requestID, status, actor.IdentityID, now); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrNotPending
			}
			return err
		}
		req.Status = status
		req.ResolvedBy = &actor.IdentityID
		req.ResolvedAt = &now
		resolved = req
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == pkgerrors.KindInternal {
			s.logger.Error("处理申请失败", zap.String("request_id", requestID), zap.Error(err))
		} else {
			s.logger.Info("申请未能处理，保持原状态",
				zap.String("request_id", requestID),
				zap.String("decision", in.Decision),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("申请已处理",
		zap.String("request_id", requestID),
		zap.String("resolver_id", actorID),
		zap.String("status", status),
	)

	s.notifier.Notify(ctx, model.Notification{
		RecipientID: resolved.RequesterID,
		Type:        model.NotificationRequestResolved,
		Content:     fmt.Sprintf("您的申请（%s %s）已%s", kindLabel(resolved.Kind), resolved.TargetRef, statusLabel(status)),
		RelatedType: "approval_request",
		RelatedID:   resolved.RequestID,
	})
	return toApprovalResponse(resolved), nil
}

// apply 执行通过后的副作用，任何错误都会使整个事务回滚
func (s *approvalService) apply(ctx context.Context, txRepo *repository.Repository, req *model.ApprovalRequest) error {
	switch req.Kind {
	case model.RequestKindAdminCandidacy:
		_, err := promoteIdentity(ctx, txRepo, req.TargetRef, model.RoleAdmin)
		return err
	case model.RequestKindDeleteEmployee:
		removed, err := removeIdentity(ctx, txRepo, req.TargetRef)
		if err != nil {
			return err
		}
		s.logger.Info("员工已删除", zap.String("identity_id", req.TargetRef), zap.Int64("shifts_removed", removed))
		return nil
	case model.RequestKindDeleteStore:
		return deleteStoreByName(ctx, txRepo, req.TargetRef)
	default:
		return ErrInvalidRequestKind
	}
}

// ────────────────────── Read ──────────────────────

func (s *approvalService) List(ctx context.Context, actorID string, req *dto.ApprovalListRequest) ([]dto.ApprovalResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}

	filter := repository.ApprovalFilter{Status: req.Status}
	if !policy.IsSuperAdmin(actor) {
		filter.RequesterID = actor.IdentityID
	}

	reqs, err := s.repo.Approval.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出申请失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApprovalResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, *toApprovalResponse(&reqs[i]))
	}
	return result, nil
}

func (s *approvalService) Get(ctx context.Context, actorID, requestID string) (*dto.ApprovalResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}

	req, err := s.repo.Approval.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if !policy.IsSuperAdmin(actor) && req.RequesterID != actor.IdentityID {
		return nil, ErrForbidden
	}
	return toApprovalResponse(req), nil
}

// ── 通知 ──

func (s *approvalService) notifySuperAdmins(ctx context.Context, req *model.ApprovalRequest, requester *model.Identity) {
	supers, err := s.repo.Identity.List(ctx, repository.IdentityFilter{Role: model.RoleSuperAdmin})
	if err != nil {
		s.logger.Warn("查询超级管理员失败，跳过通知", zap.String("request_id", req.RequestID), zap.Error(err))
		return
	}

	content := fmt.Sprintf("%s 提交了%s：%s", requester.DisplayName, kindLabel(req.Kind), req.TargetRef)
	notes := make([]model.Notification, 0, len(supers))
	for _, sa := range supers {
		notes = append(notes, model.Notification{
			RecipientID: sa.IdentityID,
			Type:        model.NotificationRequestFiled,
			Content:     content,
			RelatedType: "approval_request",
			RelatedID:   req.RequestID,
		})
	}
	s.notifier.Notify(ctx, notes...)
}

func kindLabel(kind string) string {
	switch kind {
	case model.RequestKindAdminCandidacy:
		return "管理员申请"
	case model.RequestKindDeleteEmployee:
		return "删除员工申请"
	case model.RequestKindDeleteStore:
		return "删除门店申请"
	default:
		return kind
	}
}

func statusLabel(status string) string {
	if status == model.RequestStatusApproved {
		return "通过"
	}
	return "驳回"
}
