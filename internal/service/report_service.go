package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
)

// ReportService 考勤报表
type ReportService interface {
	// BuildReport 按门店、姓名、日期排序；名称、职位、门店取查询时的当前值
	BuildReport(ctx context.Context, actorID string, req *dto.ReportRequest) ([]dto.ReportRow, error)
}

type reportService struct {
	repo   *repository.Repository
	clock  clock.Clock
	cfg    *config.ReportConfig
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, clk clock.Clock, cfg *config.ReportConfig, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, clock: clk, cfg: cfg, logger: logger}
}

func (s *reportService) BuildReport(ctx context.Context, actorID string, req *dto.ReportRequest) ([]dto.ReportRow, error) {
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
	from, to, err := dateRange(s.clock, req.DateRangeQuery, s.cfg.StatsDays)
	if err != nil {
		return nil, err
	}

	filter := repository.ShiftFilter{StoreID: storeID, From: &from, To: &to}
	if req.ConfirmedOnly {
		confirmed := true
		filter.Confirmed = &confirmed
	}

	shifts, err := s.repo.Shift.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询报表数据失败", zap.Error(err))
		return nil, err
	}

	rows := make([]dto.ReportRow, 0, len(shifts))
	for i := range shifts {
		rows = append(rows, toReportRow(&shifts[i]))
	}
	sortReportRows(rows)
	return rows, nil
}

func toReportRow(sh *model.Shift) dto.ReportRow {
	row := dto.ReportRow{
		Date:      sh.ShiftDate,
		Status:    sh.Status,
		Start:     sh.CheckIn,
		End:       sh.CheckOut,
		Hours:     sh.Hours,
		Note:      sh.Note,
		Confirmed: sh.Confirmed,
	}
	if sh.Identity != nil {
		row.Person = sh.Identity.DisplayName
		row.Position = sh.Identity.PositionName()
		row.Store = sh.Identity.StoreName()
	}
	return row
}

// sortReportRows 门店 → 姓名 → 日期 → 签到时间
func sortReportRows(rows []dto.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Store != b.Store {
			return a.Store < b.Store
		}
		if a.Person != b.Person {
			return a.Person < b.Person
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Start.Before(b.Start)
	})
}
