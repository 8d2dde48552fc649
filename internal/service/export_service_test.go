package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
)

func sampleRows() []dto.ReportRow {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, msk)
	end := start.Add(8*time.Hour + 30*time.Minute)
	return []dto.ReportRow{
		{
			Person: "Ivan", Position: "Cashier", Store: "North",
			Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: model.ShiftStatusCompleted,
			Start: start, End: &end, Hours: decimal.NewNullDecimal(decimal.RequireFromString("8.5")),
			Confirmed: true,
		},
		{
			Person: "Olga", Position: "Cashier", Store: "North",
			Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Status: model.ShiftStatusOpen,
			Start: start,
		},
	}
}

// ── CSV 测试 ──

func TestEncodeReportCSV_DotSeparator(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeReportCSV(&buf, sampleRows(), EncodeOptions{DecimalSeparator: ".", Location: msk}); err != nil {
		t.Fatalf("EncodeReportCSV 应成功: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("期望 3 行（含表头），实际=%d", len(lines))
	}
	if lines[0] != "Person,Position,Store,Date,Status,Start,End,Hours,Note,Confirmed" {
		t.Errorf("表头不符: %s", lines[0])
	}
	if lines[1] != "Ivan,Cashier,North,02.03.2026,completed,09:00,17:30,8.5,,yes" {
		t.Errorf("第一行不符: %s", lines[1])
	}
	if lines[2] != "Olga,Cashier,North,02.03.2026,open,09:00,,,,no" {
		t.Errorf("未签退行不符: %s", lines[2])
	}
}

func TestEncodeReportCSV_CommaSeparator(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeReportCSV(&buf, sampleRows()[:1], EncodeOptions{DecimalSeparator: ",", Location: msk}); err != nil {
		t.Fatalf("EncodeReportCSV 应成功: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if !strings.HasPrefix(lines[0], "Person;Position;") {
		t.Errorf("小数分隔符为逗号时字段应以分号分隔: %s", lines[0])
	}
	if !strings.Contains(lines[1], ";8,5;") {
		t.Errorf("工时应使用逗号小数: %s", lines[1])
	}
}

// ── XLSX 测试 ──

func TestEncodeReportXLSX(t *testing.T) {
	buf, err := EncodeReportXLSX(sampleRows(), EncodeOptions{DecimalSeparator: ".", Location: msk})
	if err != nil {
		t.Fatalf("EncodeReportXLSX 应成功: %v", err)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("读取生成的 xlsx 失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Timesheet")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际=%d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(ReportColumns, ",") {
		t.Errorf("表头不符: %v", rows[0])
	}
	if rows[1][0] != "Ivan" || rows[1][7] != "8.5" || rows[1][9] != "yes" {
		t.Errorf("数据行不符: %v", rows[1])
	}
}

// ── ExportReport 测试 ──

func TestExportReport_CSV(t *testing.T) {
	env := setupTestServices(t)
	env.seedStaff(t)
	env.workShift(t, "ivan", 8*time.Hour)

	buf, filename, err := env.svc.Export.ExportReport(context.Background(), "anna", &dto.ExportRequest{Format: FormatCSV})
	if err != nil {
		t.Fatalf("ExportReport 应成功: %v", err)
	}
	if filename != "timesheet_2026-03-02.csv" {
		t.Errorf("文件名不符: %s", filename)
	}
	if !strings.Contains(buf.String(), "Ivan,Cashier,North,02.03.2026,completed,09:00,17:00,8.0,,no") {
		t.Errorf("导出内容不符: %s", buf.String())
	}
}

func TestExportReport_Errors(t *testing.T) {
	env := setupTestServices(t)
	env.seedStaff(t)
	ctx := context.Background()

	if _, _, err := env.svc.Export.ExportReport(ctx, "anna", &dto.ExportRequest{Format: "pdf"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("期望 ErrUnsupportedFormat，实际: %v", err)
	}
	if _, _, err := env.svc.Export.ExportReport(ctx, "ivan", &dto.ExportRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("成员期望 ErrForbidden，实际: %v", err)
	}
}

// ── 日历测试 ──

func TestExportCalendar(t *testing.T) {
	env := setupTestServices(t)
	env.seedStaff(t)
	ctx := context.Background()

	env.workShift(t, "ivan", 8*time.Hour+30*time.Minute)
	env.nextDay()
	if _, err := env.svc.Shift.CheckIn(ctx, "ivan"); err != nil {
		t.Fatalf("CheckIn 应成功: %v", err)
	}

	buf, filename, err := env.svc.Export.ExportCalendar(ctx, "ivan", "ivan", dto.DateRangeQuery{})
	if err != nil {
		t.Fatalf("ExportCalendar 应成功: %v", err)
	}
	if filename != "shifts_ivan.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	body := buf.String()
	cal, err := ics.ParseCalendar(strings.NewReader(body))
	if err != nil {
		t.Fatalf("解析生成的日历失败: %v", err)
	}
	if len(cal.Events()) != 2 {
		t.Errorf("期望 2 个事件，实际=%d", len(cal.Events()))
	}
	if !strings.Contains(body, "Ivan (8.5h)") || !strings.Contains(body, "Ivan (open)") {
		t.Errorf("事件标题不符: %s", body)
	}

	if _, _, err := env.svc.Export.ExportCalendar(ctx, "olga", "ivan", dto.DateRangeQuery{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("成员导出他人日历期望 ErrForbidden，实际: %v", err)
	}
}
