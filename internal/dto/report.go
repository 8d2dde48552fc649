package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── 报表模块 DTO ──

// ReportRequest 报表查询参数
type ReportRequest struct {
	DateRangeQuery
	Store         string `form:"store"`
	ConfirmedOnly bool   `form:"confirmed_only"`
}

// ExportRequest 报表导出参数
type ExportRequest struct {
	ReportRequest
	Format string `form:"format" binding:"omitempty,oneof=xlsx csv"`
}

// ReportRow 报表行：班次与员工当前的名称、职位、门店
type ReportRow struct {
	Person    string              `json:"person"`
	Position  string              `json:"position"`
	Store     string              `json:"store"`
	Date      time.Time           `json:"date"`
	Status    string              `json:"status"`
	Start     time.Time           `json:"start"`
	End       *time.Time          `json:"end,omitempty"`
	Hours     decimal.NullDecimal `json:"hours"`
	Note      string              `json:"note,omitempty"`
	Confirmed bool                `json:"confirmed"`
}
