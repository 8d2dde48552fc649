package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/policy"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	pkgerrors "github.com/elecnk-png/timesheet-bot/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrUnsupportedFormat  = pkgerrors.New(pkgerrors.KindInvalidArgument, 23001, "不支持的导出格式")
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, 23002, "生成导出文件失败")
)

// 导出格式
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ReportColumns 报表列，顺序与历史导出保持一致
var ReportColumns = []string{"Person", "Position", "Store", "Date", "Status", "Start", "End", "Hours", "Note", "Confirmed"}

// EncodeOptions 报表编码选项
type EncodeOptions struct {
	DecimalSeparator string
	Location         *time.Location
}

// ExportService 报表与日历导出
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
type ExportService interface {
	// ExportReport 导出报表，format 为 xlsx 或 csv，返回内容与建议文件名
	ExportReport(ctx context.Context, actorID string, req *dto.ExportRequest) (*bytes.Buffer, string, error)
	// ExportCalendar 将员工的班次导出为 iCalendar
	ExportCalendar(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	reports ReportService
	clock   clock.Clock
	cfg     *config.ReportConfig
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, reports ReportService, clk clock.Clock, cfg *config.ReportConfig, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, reports: reports, clock: clk, cfg: cfg, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportReport
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, actorID string, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	format := req.Format
	if format == "" {
		format = FormatXLSX
	}
	if format != FormatXLSX && format != FormatCSV {
		return nil, "", ErrUnsupportedFormat
	}

	rows, err := s.reports.BuildReport(ctx, actorID, &req.ReportRequest)
	if err != nil {
		return nil, "", err
	}

	opts := EncodeOptions{DecimalSeparator: s.cfg.DecimalSeparator, Location: s.clock.Location()}
	buf := new(bytes.Buffer)
	switch format {
	case FormatCSV:
		err = EncodeReportCSV(buf, rows, opts)
	default:
		buf, err = EncodeReportXLSX(rows, opts)
	}
	if err != nil {
		s.logger.Error("生成报表文件失败", zap.String("format", format), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("timesheet_%s.%s", clock.Today(s.clock).Format(dateLayout), format)
	return buf, filename, nil
}

// EncodeReportXLSX 生成单个 Sheet 的报表
func EncodeReportXLSX(rows []dto.ReportRow, opts EncodeOptions) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timesheet"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range ReportColumns {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(ReportColumns)-1), 1), headerStyle)

	f.SetColWidth(sheetName, "A", "C", 22)
	f.SetColWidth(sheetName, "D", "H", 12)
	f.SetColWidth(sheetName, "I", "I", 20)
	f.SetColWidth(sheetName, "J", "J", 11)

	for r, row := range rows {
		for c, v := range reportRecord(row, opts) {
			f.SetCellValue(sheetName, cell(colName(c), r+2), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// EncodeReportCSV 生成 CSV 报表
// 小数分隔符为逗号时改用分号作字段分隔符
func EncodeReportCSV(w io.Writer, rows []dto.ReportRow, opts EncodeOptions) error {
	cw := csv.NewWriter(w)
	if opts.DecimalSeparator == "," {
		cw.Comma = ';'
	}

	if err := cw.Write(ReportColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(reportRecord(row, opts)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// reportRecord 按 ReportColumns 的顺序渲染一行
func reportRecord(row dto.ReportRow, opts EncodeOptions) []string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	end := ""
	if row.End != nil {
		end = row.End.In(loc).Format("15:04")
	}
	confirmed := "no"
	if row.Confirmed {
		confirmed = "yes"
	}

	return []string{
		row.Person,
		row.Position,
		row.Store,
		row.Date.Format("02.01.2006"),
		row.Status,
		row.Start.In(loc).Format("15:04"),
		end,
		formatHours(row, opts.DecimalSeparator),
		row.Note,
		confirmed,
	}
}

// formatHours 保留一位小数，未签退时为空
func formatHours(row dto.ReportRow, sep string) string {
	if !row.Hours.Valid {
		return ""
	}
	s := row.Hours.Decimal.StringFixed(1)
	if sep == "," {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportCalendar(ctx context.Context, actorID, targetID string, q dto.DateRangeQuery) (*bytes.Buffer, string, error) {
	actor, err := loadActor(ctx, s.repo, actorID)
	if err != nil {
		return nil, "", err
	}
	target := actor
	if targetID != actor.IdentityID {
		target, err = s.repo.Identity.GetByID(ctx, targetID)
		if err != nil {
			return nil, "", ErrIdentityNotFound
		}
		if !policy.CanViewIdentity(actor, target) {
			return nil, "", ErrForbidden
		}
	}

	from, to, err := dateRange(s.clock, q, s.cfg.StatsDays)
	if err != nil {
		return nil, "", err
	}
	shifts, err := s.repo.Shift.List(ctx, repository.ShiftFilter{IdentityID: target.IdentityID, From: &from, To: &to})
	if err != nil {
		s.logger.Error("查询班次失败", zap.String("target_id", targetID), zap.Error(err))
		return nil, "", err
	}

	buf := bytes.NewBufferString(EncodeShiftsICS(target.DisplayName, shifts))
	return buf, fmt.Sprintf("shifts_%s.ics", target.IdentityID), nil
}

// EncodeShiftsICS 每个班次一个 VEVENT；未签退的班次以签到时间为起止
func EncodeShiftsICS(person string, shifts []model.Shift) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timesheet-bot//shifts//EN")
	cal.SetName(person)

	for i := range shifts {
		sh := &shifts[i]
		event := cal.AddEvent(sh.ShiftID + "@timesheet-bot")
		event.SetDtStampTime(sh.CheckIn)
		event.SetStartAt(sh.CheckIn)

		summary := person
		if sh.CheckOut != nil {
			event.SetEndAt(*sh.CheckOut)
			if sh.Hours.Valid {
				summary = fmt.Sprintf("%s (%sh)", person, sh.Hours.Decimal.StringFixed(1))
			}
		} else {
			event.SetEndAt(sh.CheckIn)
			summary = person + " (open)"
		}
		event.SetSummary(summary)

		desc := "status: " + sh.Status
		if sh.Confirmed {
			desc += ", confirmed"
		}
		if sh.Note != "" {
			desc += ", " + sh.Note
		}
		event.SetDescription(desc)
	}
	return cal.Serialize()
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
