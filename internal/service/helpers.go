package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

const dateLayout = "2006-01-02"

// ── 通用业务错误 ──

var (
	ErrNotRegistered    = pkgerrors.New(pkgerrors.KindForbidden, 20001, "请先完成注册")
	ErrForbidden        = pkgerrors.New(pkgerrors.KindForbidden, 20002, "无权限执行该操作")
	ErrInvalidDateRange = pkgerrors.New(pkgerrors.KindInvalidArgument, 21006, "日期区间无效")
)

// loadActor 读取操作者，未注册返回 ErrNotRegistered
func loadActor(ctx context.Context, repo *repository.Repository, actorID string) (*model.Identity, error) {
	if actorID == "" {
		return nil, ErrNotRegistered
	}
	actor, err := repo.Identity.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, err
	}
	return actor, nil
}

// dateRange 解析闭区间，缺省时以今天为终点回看 defaultDays 天
func dateRange(c clock.Clock, q dto.DateRangeQuery, defaultDays int) (time.Time, time.Time, error) {
	to := clock.Today(c)
	if q.To != "" {
		t, err := time.Parse(dateLayout, q.To)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDateRange
		}
		to = t
	}

	from := to.AddDate(0, 0, -defaultDays)
	if q.From != "" {
		f, err := time.Parse(dateLayout, q.From)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDateRange
		}
		from = f
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

func toIdentityResponse(i *model.Identity) *dto.IdentityResponse {
	return &dto.IdentityResponse{
		ID:          i.IdentityID,
		DisplayName: i.DisplayName,
		Position:    i.PositionName(),
		Store:       i.StoreName(),
		StoreID:     i.StoreID,
		Role:        i.Role,
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
	}
}

func toShiftResponse(s *model.Shift, loc *time.Location) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:         s.ShiftID,
		IdentityID: s.IdentityID,
		Date:       s.ShiftDate.Format(dateLayout),
		Status:     s.Status,
		CheckIn:    formatTime(s.CheckIn, loc),
		Confirmed:  s.Confirmed,
		Note:       s.Note,
	}
	if s.Identity != nil {
		resp.DisplayName = s.Identity.DisplayName
	}
	if s.CheckOut != nil {
		resp.CheckOut = formatTime(*s.CheckOut, loc)
	}
	if s.Hours.Valid {
		h := s.Hours.Decimal.InexactFloat64()
		resp.Hours = &h
	}
	return resp
}

func toApprovalResponse(r *model.ApprovalRequest) *dto.ApprovalResponse {
	resp := &dto.ApprovalResponse{
		ID:          r.RequestID,
		RequesterID: r.RequesterID,
		Kind:        r.Kind,
		TargetRef:   r.TargetRef,
		Status:      r.Status,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ResolvedBy != nil {
		resp.ResolvedBy = *r.ResolvedBy
	}
	if r.ResolvedAt != nil {
		resp.ResolvedAt = r.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}
