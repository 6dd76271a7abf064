package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gleamops/backend/config"
	"gleamops/backend/internal/api/handler"
	"gleamops/backend/internal/api/middleware"
	"gleamops/backend/pkg/jwt"
	"gleamops/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，登录接口限速防爆破）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", middleware.RateLimit(rdb, 20, time.Minute), h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 排班周期模块
			periods := authorized.Group("/schedule-periods")
			{
				periods.GET("", h.Period.List)
				periods.GET("/:id", h.Period.Get)
				periods.GET("/:id/conflicts", h.Period.ListConflicts)
				periods.POST("", middleware.RoleAuth("admin", "manager"), h.Period.Create)
				periods.POST("/:id/validate", middleware.RoleAuth("admin", "manager"), h.Period.Validate)
				periods.POST("/:id/publish", middleware.RoleAuth("admin", "manager"), h.Period.Publish)
				periods.POST("/:id/lock", middleware.RoleAuth("admin", "manager"), h.Period.Lock)
			}
			authorized.POST("/schedule-conflicts/:id/resolve", middleware.RoleAuth("admin", "manager"), h.Period.ResolveConflict)

			// 路线执行模块
			routes := authorized.Group("/routes")
			{
				routes.GET("/tonight-board", h.RouteStop.TonightBoard)
				routes.GET("/:id", h.RouteStop.GetRoute)
			}
			stops := authorized.Group("/route-stops")
			{
				stops.POST("/:id/arrive", h.RouteStop.Arrive)
				stops.POST("/:id/start", h.RouteStop.Start)
				stops.POST("/:id/complete", h.RouteStop.Complete)
				stops.POST("/:id/skip", h.RouteStop.Skip)
			}
			segments := authorized.Group("/travel-segments")
			{
				segments.POST("", h.RouteStop.CaptureTravel)
				segments.POST("/:id/approve", middleware.RoleAuth("admin", "manager"), h.RouteStop.ApproveTravel)
			}

			// 缺勤与顶班模块
			callouts := authorized.Group("/callouts")
			{
				callouts.GET("", h.Callout.List)
				callouts.GET("/:id", h.Callout.Get)
				callouts.GET("/:id/offers", h.Callout.ListOffers)
				callouts.POST("", h.Callout.Report)
				callouts.POST("/:id/offers", middleware.RoleAuth("admin", "manager", "dispatcher"), h.Callout.Offer)
				callouts.POST("/:id/resolve", middleware.RoleAuth("admin", "manager", "dispatcher"), h.Callout.Resolve)
				callouts.POST("/:id/cancel", middleware.RoleAuth("admin", "manager", "dispatcher"), h.Callout.Cancel)
			}
			offers := authorized.Group("/coverage-offers")
			{
				offers.POST("/:id/accept", h.Callout.Accept)
				offers.POST("/:id/decline", h.Callout.Decline)
				offers.POST("/:id/withdraw", middleware.RoleAuth("admin", "manager", "dispatcher"), h.Callout.Withdraw)
			}

			// 换班模块
			trades := authorized.Group("/shift-trades")
			{
				trades.GET("", h.Trade.List)
				trades.GET("/:id", h.Trade.Get)
				trades.POST("", h.Trade.Request)
				trades.POST("/:id/accept", h.Trade.Accept)
				trades.POST("/:id/cancel", h.Trade.Cancel)
				trades.POST("/:id/approve", middleware.RoleAuth("admin", "manager"), h.Trade.Approve)
				trades.POST("/:id/apply", middleware.RoleAuth("admin", "manager"), h.Trade.Apply)
				trades.POST("/:id/deny", middleware.RoleAuth("admin", "manager"), h.Trade.Deny)
			}

			// 工资导出模块
			payroll := authorized.Group("/payroll")
			payroll.Use(middleware.RoleAuth("admin", "manager"))
			{
				payroll.POST("/preview", h.Payroll.Preview)
				payroll.POST("/runs", h.Payroll.Generate)
				payroll.GET("/runs", h.Payroll.ListRuns)
				payroll.GET("/runs/:id", h.Payroll.GetRun)
				payroll.GET("/runs/:id/items", h.Payroll.ListItems)
				payroll.POST("/runs/:id/finalize", h.Payroll.Finalize)
			}

			// 文件导出模块
			export := authorized.Group("/export")
			{
				export.GET("/roster", middleware.RoleAuth("admin", "manager"), h.Export.ExportRoster)
				export.GET("/my-schedule.ics", h.Export.MyScheduleICS)
			}
		}
	}

	return r
}
