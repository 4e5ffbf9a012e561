package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pfe-hub/backend/config"
	"pfe-hub/backend/internal/api/handler"
	"pfe-hub/backend/internal/api/middleware"
	"pfe-hub/backend/internal/api/router"
	"pfe-hub/backend/internal/repository"
	"pfe-hub/backend/internal/service"
	"pfe-hub/backend/pkg/database"
	"pfe-hub/backend/pkg/jwt"
	applogger "pfe-hub/backend/pkg/logger"
	"pfe-hub/backend/pkg/mailer"
	"pfe-hub/backend/pkg/redis"
	"pfe-hub/backend/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	rollback := flag.Int("rollback", 0, "回滚最近 N 个数据库迁移后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
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

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("mail_provider", cfg.Mail.Provider),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()

	if *rollback > 0 {
		if err := database.RollbackMigrations(sqlDB, *rollback, logger); err != nil {
			logger.Fatal("回滚迁移失败", zap.Error(err))
		}
		logger.Info("迁移回滚完成", zap.Int("steps", *rollback))
		return
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：未配置或连接失败时降级运行）
	deps := service.Deps{Config: cfg, Logger: logger}
	var (
		revoked middleware.TokenRevocationChecker
		limiter middleware.RateLimiter
	)
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单、限流与分配运行锁将不可用", zap.Error(err))
		} else {
			defer rdb.Close()
			// 仅在连接成功时赋值，避免接口持有 nil 指针
			deps.Blacklist, deps.Locker = rdb, rdb
			revoked, limiter = rdb, rdb
		}
	}

	// 5. 基础设施：JWT / 邮件 / 文档存储
	deps.JWT = jwt.NewManager(&cfg.Auth)
	if deps.Mailer, err = mailer.New(&cfg.Mail, logger); err != nil {
		logger.Fatal("初始化邮件发送失败", zap.Error(err))
	}
	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()
	if deps.Storage, err = storage.New(initCtx, &cfg.Storage, logger); err != nil {
		logger.Fatal("初始化文档存储失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	deps.Repo = repository.NewRepository(db)
	svc := service.NewService(deps)

	if err := deps.Repo.SystemConfig.Ensure(initCtx); err != nil {
		logger.Fatal("初始化系统配置失败", zap.Error(err))
	}
	if err := svc.Admin.EnsureBootstrap(initCtx, &cfg.Auth.BootstrapAdmin); err != nil {
		logger.Fatal("创建初始管理员失败", zap.Error(err))
	}

	h := handler.NewHandler(svc, handler.AuthCookieOptions{
		Secure:      strings.HasPrefix(cfg.Server.BaseURL, "https://"),
		RememberTTL: cfg.Auth.RefreshTokenTTLRemember,
	})

	// 7. 初始化路由
	engine := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     deps.JWT,
		Revoked: revoked,
		Limiter: limiter,
		Logger:  logger,
	})

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	logger.Info("服务器已关闭")
}
