package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/service"
	"github.com/elecnk-png/timesheet-bot/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ReportHandler 报表与导出 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	exportSvc service.ExportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, exportSvc service.ExportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc}
}

// BuildReport 报表数据
// GET /api/v1/reports?store=&from=&to=&confirmed_only=
func (h *ReportHandler) BuildReport(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	rows, err := h.reportSvc.BuildReport(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OKList(c, rows, len(rows))
}

// ExportReport 导出报表文件
// GET /api/v1/export/report?format=xlsx|csv
func (h *ReportHandler) ExportReport(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportReport(c.Request.Context(), actorID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	contentType := contentTypeXLSX
	if req.Format == service.FormatCSV {
		contentType = contentTypeCSV
	}
	attachment(c, filename, contentType, buf)
}

// MyCalendar 我的班次日历
// GET /api/v1/shifts/me/calendar?from=&to=
func (h *ReportHandler) MyCalendar(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.calendar(c, actorID, actorID)
}

// IdentityCalendar 员工班次日历
// GET /api/v1/directory/identities/:id/calendar?from=&to=
func (h *ReportHandler) IdentityCalendar(c *gin.Context) {
	actorID, ok := MustGetActorID(c)
	if !ok {
		return
	}
	h.calendar(c, actorID, c.Param("id"))
}

func (h *ReportHandler) calendar(c *gin.Context, actorID, targetID string) {
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), actorID, targetID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, filename, contentTypeICS, buf)
}

func attachment(c *gin.Context, filename, contentType string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
