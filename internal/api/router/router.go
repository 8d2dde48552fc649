package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/config"
	"github.com/elecnk-png/timesheet-bot/internal/api/handler"
	"github.com/elecnk-png/timesheet-bot/internal/api/middleware"
	"github.com/elecnk-png/timesheet-bot/pkg/jwt"
)

// maxBodyBytes 请求体上限，接口只接收小型 JSON
const maxBodyBytes = 1 << 20

// Deps 路由依赖；Checker 与 Limiter 为 nil 时对应功能降级（Redis 不可用）
type Deps struct {
	Config    *config.Config
	Handler   *handler.Handler
	JWT       *jwt.Manager
	Checker   middleware.TokenChecker
	Limiter   middleware.RateLimiter
	VerifyKey func(key string) bool
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := d.Handler
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.Config.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 网关换取 Token（service key 在 service 层校验）
		v1.POST("/auth/token", middleware.RateLimit(d.Limiter, d.Config.Auth.TokenRateLimit, time.Minute), h.Auth.IssueToken)

		// 职位与门店词表（注册前即可查看）
		v1.GET("/positions", h.Directory.ListPositions)
		v1.GET("/stores", h.Directory.ListStores)

		// 通知发件箱（仅网关）
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.ServiceKeyAuth(d.VerifyKey))
		{
			notifications.GET("/outbox", h.Notification.ListOutbox)
			notifications.POST("/ack", h.Notification.Ack)
		}

		// 需要认证的路由；角色不在 Token 中，由 service 层按目录实时判定
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Checker))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 目录模块
			directory := authorized.Group("/directory")
			{
				directory.POST("/register", h.Directory.Register)
				directory.GET("/me", h.Directory.Me)
				directory.GET("/identities", h.Directory.ListIdentities)
				directory.GET("/identities/:id", h.Directory.GetIdentity)
				directory.POST("/identities/:id/promote", h.Directory.Promote)
				directory.POST("/identities/:id/demote", h.Directory.Demote)
				directory.PUT("/identities/:id/assignment", h.Directory.Reassign)
				directory.GET("/identities/:id/shifts", h.Shift.ListForIdentity)
				directory.GET("/identities/:id/stats", h.Shift.IdentityStats)
				directory.GET("/identities/:id/calendar", h.Report.IdentityCalendar)
			}

			authorized.POST("/positions", h.Directory.CreatePosition)
			authorized.DELETE("/positions/:name", h.Directory.DeletePosition)
			authorized.POST("/stores", h.Directory.CreateStore)
			authorized.DELETE("/stores/:name", h.Directory.DeleteStore)

			// 考勤模块
			shifts := authorized.Group("/shifts")
			{
				shifts.POST("/check-in", h.Shift.CheckIn)
				shifts.POST("/check-out", h.Shift.CheckOut)
				shifts.GET("/me", h.Shift.ListMine)
				shifts.GET("/me/stats", h.Shift.MyStats)
				shifts.GET("/me/calendar", h.Report.MyCalendar)
				shifts.GET("/unconfirmed", h.Shift.ListUnconfirmed)
				shifts.POST("/confirm-all", h.Shift.ConfirmAll)
				shifts.POST("/:id/confirm", h.Shift.Confirm)
			}

			// 审批模块
			approvals := authorized.Group("/approvals")
			{
				approvals.GET("", h.Approval.List)
				approvals.GET("/:id", h.Approval.Get)
				approvals.POST("/admin-candidacy", h.Approval.FileAdminCandidacy)
				approvals.POST("/deletion", h.Approval.FileDeletion)
				approvals.POST("/:id/resolve", h.Approval.Resolve)
			}

			// 报表与导出
			authorized.GET("/reports", h.Report.BuildReport)
			authorized.GET("/export/report", h.Report.ExportReport)
		}
	}

	return r
}
