package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smart-watering/config"
	"smart-watering/internal/api/handler"
	"smart-watering/internal/api/middleware"
	"smart-watering/pkg/redis"
)

// 请求体上限：计划请求只有少量字段
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时开关接口不限流
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	{
		// 设备
		api.GET("/devices", h.Device.ListDevices)
		api.POST("/devices", h.Device.CreateDevice)
		api.GET("/devices/:id", h.Device.GetDevice)
		api.PUT("/devices/:id", h.Device.UpdateDevice)
		api.DELETE("/devices/:id", h.Device.DeleteDevice)
		api.POST("/device/:id/toggle",
			middleware.RateLimit(rdb, cfg.Redis.ToggleLimit, cfg.Redis.ToggleWindow, logger),
			h.Device.ToggleDevice,
		)

		// 浇水计划
		api.GET("/schedules", h.Schedule.ListSchedules)
		api.GET("/all-schedules", h.Schedule.ListAllSchedules)
		api.POST("/generate_schedule", h.Schedule.GenerateSchedule)
		api.POST("/preview_schedule", h.Schedule.PreviewSchedule)
		api.POST("/new_schedule", h.Schedule.NewSchedule)
		api.PUT("/schedules/:id", h.Schedule.UpdateSchedule)
		api.DELETE("/schedules/:id", h.Schedule.DeleteSchedule)

		// 导出
		api.GET("/export/schedules.ics", h.Export.ExportICS)
		api.GET("/export/schedules.xlsx", h.Export.ExportXLSX)
	}

	return r
}
