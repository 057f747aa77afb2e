package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"smart-watering/config"
	"smart-watering/internal/api/handler"
	"smart-watering/internal/api/router"
	"smart-watering/internal/repository"
	"smart-watering/internal/service"
	"smart-watering/pkg/database"
	applogger "smart-watering/pkg/logger"
	"smart-watering/pkg/redis"
	"smart-watering/pkg/relay"
)

func main() {
	// 0. 加载 .env（不存在时忽略）
	envErr := godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("WATERING_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn("读取 .env 失败", zap.Error(envErr))
	}

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Schedule.Timezone),
		zap.String("gpio_driver", cfg.GPIO.Driver),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，开关接口不限流）
	var rdb *redis.Client
	rdb, err = redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，开关接口限流将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化继电器驱动
	actuator, err := relay.New(&cfg.GPIO, logger)
	if err != nil {
		logger.Fatal("初始化继电器驱动失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc, err := service.NewService(cfg, repo, actuator, logger)
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}
	h := handler.NewHandler(svc, repo)

	// 6.1 启动时所有继电器置为断开，与库中状态对齐
	resetCtx, resetCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Device.ResetRelays(resetCtx); err != nil {
		logger.Warn("启动时复位继电器失败", zap.Error(err))
	}
	resetCancel()

	// 7. 初始化路由
	engine := router.Setup(cfg, h, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 退出前断开所有继电器，避免阀门保持打开
	if err := svc.Device.ResetRelays(ctx); err != nil {
		logger.Error("退出时复位继电器失败", zap.Error(err))
	}
	if err := actuator.Close(); err != nil {
		logger.Error("释放 GPIO 失败", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
