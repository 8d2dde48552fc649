package handler

import "github.com/elecnk-png/timesheet-bot/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Directory    *DirectoryHandler
	Shift        *ShiftHandler
	Approval     *ApprovalHandler
	Report       *ReportHandler
	Notification *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Directory:    NewDirectoryHandler(svc.Directory),
		Shift:        NewShiftHandler(svc.Shift),
		Approval:     NewApprovalHandler(svc.Approval),
		Report:       NewReportHandler(svc.Report, svc.Export),
		Notification: NewNotificationHandler(svc.Notification),
	}
}
