package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ── 考勤模块业务错误 ──

var (
	ErrShiftAlreadyOpen      = pkgerrors.New(pkgerrors.KindConflict, 21001, "今天已签到，尚未签退")
	ErrShiftAlreadyCompleted = pkgerrors.New(pkgerrors.KindConflict, 21002, "今天的班次已结束")
	ErrNoOpenShift           = pkgerrors.New(pkgerrors.KindInvalidTransition, 21003, "没有未签退的班次")
	ErrShiftNotFound         = pkgerrors.New(pkgerrors.KindNotFound, 21004, "班次不存在")
	ErrShiftNotCompleted     = pkgerrors.New(pkgerrors.KindInvalidTransition, 21005, "班次尚未签退，无法确认")
	ErrAnomalousDuration     = pkgerrors.New(pkgerrors.KindAnomalousDuration, 21007, "签退时长不为正")
)

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ShiftService 签到、签退、确认与统计
//
// 状态机：∅ --CheckIn--> open --CheckOut--> completed --Confirm--> completed+confirmed
type ShiftService interface {
	CheckIn(ctx context.Context, actorID string) (*dto.ShiftResponse, error)
	// CheckOut 关闭最近一次未签退的班次，跨零点的班次也能正确关闭
	CheckOut(ctx context.Context, actorID string) (*dto.ShiftResponse, error)
	// Confirm 已确认的班次再次确认视为成功
	Confirm(ctx context.Context, actorID, shiftID string) (*dto.ShiftResponse, error)
	ConfirmAll(ctx context.Context, actorID string, req *dto.ConfirmAllRequest) (*dto.ConfirmAllResponse, error)
	ListForIdentity(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) ([]dto.ShiftResponse, error)
	ListUnconfirmed(ctx context.Context, actorID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error)
	AggregateHours(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) (*dto.HoursStatsResponse, error)
}

type shiftService struct {
	repo   *repository.Repository
	clock  clock.Clock
	cfg    *config.ReportConfig
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例
func NewShiftService(repo *repository.Repository, clk clock.Clock, cfg *config.ReportConfig, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, clock: clk, cfg: cfg, logger: logger}
}

// ────────────────────── CheckIn ──────────────────────

func (s *shiftService) CheckIn(ctx context.Context, actorID string) (*dto.ShiftResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	shift := &model.Shift{
		IdentityID: actor.IdentityID,
		ShiftDate:  clock.DateOf(now, s.clock.Location()),
		Status:     model.ShiftStatusOpen,
		CheckIn:    now,
	}

	// (identity_id, shift_date) 唯一约束保证同一天只有一条
	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("签到失败", zap.String("actor_id", actorID), zap.Error(err))
			return nil, err
		}
		existing, getErr := s.repo.Shift.GetByIdentityAndDate(ctx, actor.IdentityID, shift.ShiftDate)
		if getErr != nil {
			return nil, getErr
		}
		if existing.IsOpen() {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, ErrShiftAlreadyCompleted
	}

	s.logger.Info("签到", zap.String("actor_id", actorID), zap.Time("check_in", now))
	return toShiftResponse(shift, s.clock.Location()), nil
}

// ────────────────────── CheckOut ──────────────────────

func (s *shiftService) CheckOut(ctx context.Context, actorID string) (*dto.ShiftResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}

	shift, err := s.repo.Shift.GetLatestOpen(ctx, actor.IdentityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoOpenShift
		}
		return nil, err
	}

	now := s.clock.Now()
	hours := shiftHours(shift.CheckIn, now)
	note := shift.Note
	if !hours.IsPositive() {
		// 时长异常仍然签退，只记录不修正
		s.logger.Warn("签退时长异常",
			zap.String("actor_id", actorID),
			zap.String("shift_id", shift.ShiftID),
			zap.Time("check_in", shift.CheckIn),
			zap.Time("check_out", now),
			zap.String("hours", hours.String()),
			zap.Error(ErrAnomalousDuration),
		)
		note = model.NoteAnomalousDuration
	}

	if err := s.repo.Shift.Close(ctx, shift.ShiftID, now, hours, note); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrNoOpenShift
		}
		s.logger.Error("签退失败", zap.String("shift_id", shift.ShiftID), zap.Error(err))
		return nil, err
	}

	shift.Status = model.ShiftStatusCompleted
	shift.CheckOut = &now
	shift.Hours = decimal.NewNullDecimal(hours)
	shift.Note = note

	s.logger.Info("签退", zap.String("actor_id", actorID), zap.String("hours", hours.String()))
	return toShiftResponse(shift, s.clock.Location()), nil
}

// shiftHours 以秒为精度计算小时数，保留两位小数
func shiftHours(checkIn, checkOut time.Time) decimal.Decimal {
	seconds := int64(checkOut.Sub(checkIn) / time.Second)
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2)
}

// ────────────────────── Confirm ──────────────────────

func (s *shiftService) Confirm(ctx context.Context, actorID, shiftID string) (*dto.ShiftResponse, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}

	shift, err := s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Identity == nil || !policy.CanManageStore(actor, shift.Identity.StoreID) {
		return nil, ErrForbidden
	}
	if shift.IsOpen() {
		return nil, ErrShiftNotCompleted
	}
	if shift.Confirmed {
		return toShiftResponse(shift, s.clock.Location()), nil
	}

	if _, err := s.repo.Shift.Confirm(ctx, shiftID, actor.IdentityID, s.clock.Now()); err != nil {
		s.logger.Error("确认班次失败", zap.String("shift_id", shiftID), zap.Error(err))
		return nil, err
	}

	shift, err = s.getShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift, s.clock.Location()), nil
}

func (s *shiftService) ConfirmAll(ctx context.Context, actorID string, req *dto.ConfirmAllRequest) (*dto.ConfirmAllResponse, error) {
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
	filter := repository.ShiftFilter{StoreID: storeID}
	if err := applyOptionalRange(&filter, req.From, req.To); err != nil {
		return nil, err
	}

	n, err := s.repo.Shift.ConfirmCompleted(ctx, filter, actor.IdentityID, s.clock.Now())
	if err != nil {
		s.logger.Error("批量确认失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("批量确认班次",
		zap.String("actor_id", actorID),
		zap.String("store_id", storeID),
		zap.Int64("confirmed", n),
	)
	return &dto.ConfirmAllResponse{Confirmed: n}, nil
}

// ────────────────────── Queries ──────────────────────

func (s *shiftService) ListForIdentity(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) ([]dto.ShiftResponse, error) {
	if _, err := s.authorizeView(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	from, to, err := dateRange(s.clock, q, s.cfg.TimesheetDays)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{IdentityID: targetID, From: &from, To: &to})
	if err != nil {
		s.logger.Error("查询考勤失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, err
	}
	return s.toResponses(shifts), nil
}

func (s *shiftService) ListUnconfirmed(ctx context.Context, actorID string, req *dto.ShiftListRequest) ([]dto.ShiftResponse, error) {
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
	unconfirmed := false
	filter := repository.ShiftFilter{
		StoreID:   storeID,
		Status:    model.ShiftStatusCompleted,
		Confirmed: &unconfirmed,
	}
	if err := applyOptionalRange(&filter, req.From, req.To); err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询待确认班次失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(shifts), nil
}

func (s *shiftService) AggregateHours(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) (*dto.HoursStatsResponse, error) {
	if _, err := s.authorizeView(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	from, to, err := dateRange(s.clock, q, s.cfg.StatsDays)
	if err != nil {
		return nil, err
	}

	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		IdentityID: targetID,
		Status:     model.ShiftStatusCompleted,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		s.logger.Error("查询工时失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, err
	}

	stats := aggregate(shifts)
	stats.IdentityID = targetID
	stats.From = from.Format(dateLayout)
	stats.To = to.Format(dateLayout)
	return stats, nil
}

// aggregate 汇总已完成班次的工时，按星期一至星期日分组
func aggregate(shifts []model.Shift) *dto.HoursStatsResponse {
	total := decimal.Zero
	days := 0
	var byDay [7]decimal.Decimal
	var dayCount [7]int

	for i := range shifts {
		sh := &shifts[i]
		if sh.Status != model.ShiftStatusCompleted {
			continue
		}
		days++
		idx := (int(sh.ShiftDate.Weekday()) + 6) % 7
		dayCount[idx]++
		if sh.Hours.Valid {
			total = total.Add(sh.Hours.Decimal)
			byDay[idx] = byDay[idx].Add(sh.Hours.Decimal)
		}
	}

	avg := decimal.Zero
	if days > 0 {
		avg = total.Div(decimal.NewFromInt(int64(days))).Round(2)
	}

	resp := &dto.HoursStatsResponse{
		TotalHours:    total.Round(2).InexactFloat64(),
		CompletedDays: days,
		AverageHours:  avg.InexactFloat64(),
		ByWeekday:     make([]dto.WeekdayHours, 0, 7),
	}
	for i, name := range weekdayNames {
		resp.ByWeekday = append(resp.ByWeekday, dto.WeekdayHours{
			Weekday: name,
			Days:    dayCount[i],
			Hours:   byDay[i].Round(2).InexactFloat64(),
		})
	}
	return resp
}

// ── 辅助函数 ──

func (s *shiftService) authorizeView(ctx context.Context, actorID, targetID string) (*model.Identity, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IdentityID == targetID {
		return actor, nil
	}

	target, err := s.repo.Identity.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	if !policy.CanViewIdentity(actor, target) {
		return nil, ErrForbidden
	}
	return target, nil
}

func (s *shiftService) getShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func (s *shiftService) toResponses(shifts []model.Shift) []dto.ShiftResponse {
	loc := s.clock.Location()
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i], loc))
	}
	return result
}

// applyOptionalRange 写入可选的日期过滤，两端都可以为空
func applyOptionalRange(filter *repository.ShiftFilter, from, to string) error {
	if from != "" {
		f, err := time.Parse(dateLayout, from)
		if err != nil {
			return ErrInvalidDateRange
		}
		filter.From = &f
	}
	if to != "" {
		t, err := time.Parse(dateLayout, to)
		if err != nil {
			return ErrInvalidDateRange
		}
		filter.To = &t
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return ErrInvalidDateRange
	}
	return nil
}
