package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"purple-port/backend/config"
	"purple-port/backend/internal/api/handler"
	"purple-port/backend/internal/api/middleware"
	"purple-port/backend/internal/model"
	"purple-port/backend/pkg/jwt"
	"purple-port/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				defer cancel()
				err = sqlDB.PingContext(ctx)
			}
			if err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := middleware.RoleAuth(model.AdminRoles...)
	api := r.Group("/api")
	{
		// 认证模块（无需认证）
		auth := api.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 考勤机桥接（API Key 鉴权）
		if cfg.Biometric.BridgeEnabled {
			api.POST("/attendance/biometric/bridge/upload",
				middleware.BridgeKeyAuth(cfg.Biometric.BridgeAPIKey), h.Biometric.BridgeUpload)
		}

		// 需要认证的路由
		authorized := api.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 团队模块
			team := authorized.Group("/team", admin)
			{
				team.POST("/staff", h.Staff.Onboard)
				team.POST("/staff/import", h.Staff.Import)
				team.GET("/staff", h.Staff.List)
				team.GET("/staff/:userId", h.Staff.Get)
				team.PUT("/staff/:userId/salary", h.Staff.UpdateSalary)
			}

			// 考勤模块
			att := authorized.Group("/attendance")
			{
				att.POST("/check-in", h.Attendance.CheckIn)
				att.POST("/check-out", h.Attendance.CheckOut)
				att.GET("/records", h.Attendance.Records) // 非管理员仅限本人（Handler 层鉴权）
				att.GET("/calendar", h.Attendance.Calendar)
				att.POST("/admin/update", admin, h.Attendance.AdminUpdate)
				att.POST("/recompute", admin, h.Attendance.Recompute)

				att.GET("/settings", admin, h.SystemConfig.GetConfig)
				att.PUT("/settings", admin, h.SystemConfig.UpdateConfig)

				att.POST("/regularisations", h.Attendance.RequestRegularisation)
				att.GET("/regularisations", h.Attendance.ListRegularisations)
				att.PUT("/regularisations/:id/decision", admin, h.Attendance.DecideRegularisation)
				att.POST("/regularisations/:id/revert", admin, h.Attendance.RevertRegularisation)

				att.GET("/shifts", h.Shift.List)
				att.GET("/shifts/resolve", h.Shift.Resolve)
				att.POST("/shifts", admin, h.Shift.Create)
				att.PUT("/shifts/:id", admin, h.Shift.Update)
				att.DELETE("/shifts/:id", admin, h.Shift.Delete)
				att.GET("/shift-assignments", admin, h.Shift.ListAssignments)
				att.POST("/shift-assignments", admin, h.Shift.Assign)
				att.DELETE("/shift-assignments/:id", admin, h.Shift.DeleteAssignment)

				att.POST("/leaves", h.Leave.Apply)
				att.GET("/leaves", h.Leave.List)
				att.PUT("/leaves/:id/decision", admin, h.Leave.Decide)
				att.GET("/holidays", h.Leave.ListHolidays)
				att.POST("/holidays", admin, h.Leave.CreateHoliday)
				att.DELETE("/holidays/:id", admin, h.Leave.DeleteHoliday)

				att.POST("/biometric/sync", admin, h.Biometric.Sync)
				att.GET("/biometric/status", admin, h.Biometric.Status)
			}

			// 会计模块
			acc := authorized.Group("/accounting", admin)
			{
				acc.GET("/heads", h.Ledger.ListHeads)
				acc.GET("/ledgers", h.Ledger.ListLedgers)
				acc.POST("/ledgers", h.Ledger.CreateLedger)
				acc.GET("/ledgers/:id", h.Ledger.GetLedger)
				acc.PUT("/ledgers/:id", h.Ledger.UpdateLedger)
				acc.DELETE("/ledgers/:id", h.Ledger.DeleteLedger)
				acc.GET("/ledgers/:id/statement", h.Ledger.Statement)
				acc.GET("/transactions", h.Ledger.ListTransactions)
				acc.POST("/transactions", h.Ledger.RecordTransaction)
				acc.POST("/journal", h.Ledger.PostJournal)
				acc.PUT("/transactions/:id", h.Ledger.UpdateTransaction)
				acc.DELETE("/transactions/:id", h.Ledger.DeleteTransaction)
				acc.GET("/overview", h.Ledger.Overview)
			}

			// 薪资模块
			pay := authorized.Group("/payroll", admin)
			{
				pay.GET("/lop", h.Payroll.LOP)
				pay.GET("/draft", h.Payroll.Draft)
				pay.POST("/slips", h.Payroll.SaveSlip)
				pay.DELETE("/slips/:id", h.Payroll.RejectSlip)
				pay.GET("/runs", h.Payroll.ListRuns)
				pay.POST("/runs/confirm", h.Payroll.ConfirmRun)
				pay.GET("/runs/export", h.Export.ExportPayrollRegister)
			}
		}
	}

	return r
}
