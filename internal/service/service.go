package service

import (
	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
	"github.com/elecnk-png/timesheet-bot/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Directory    DirectoryService
	Shift        ShiftService
	Approval     ApprovalService
	Report       ReportService
	Export       ExportService
	Notification NotificationService
}

// Deps 外部依赖，Blacklist 与 Publisher 在 Redis 不可用时为 nil
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Clock     clock.Clock
	Blacklist TokenBlacklist
	Publisher NotificationPublisher
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	notification := NewNotificationService(d.Repo, d.Publisher, d.Clock, d.Logger)
	report := NewReportService(d.Repo, d.Clock, &d.Config.Report, d.Logger)

	return &Service{
		Auth:         NewAuthService(&d.Config.Auth, d.JWT, d.Blacklist, d.Logger),
		Directory:    NewDirectoryService(d.Repo, d.Logger),
		Shift:        NewShiftService(d.Repo, d.Clock, &d.Config.Report, d.Logger),
		Approval:     NewApprovalService(d.Repo, notification, d.Clock, d.Logger),
		Report:       report,
		Export:       NewExportService(d.Repo, report, d.Clock, &d.Config.Report, d.Logger),
		Notification: notification,
	}
}
