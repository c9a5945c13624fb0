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

	"github.com/sirupsen/logrus"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/api"
	"github.com/kenerlee/navix-server/internal/api/handler"
	"github.com/kenerlee/navix-server/internal/database"
	"github.com/kenerlee/navix-server/internal/pkg/cron"
	"github.com/kenerlee/navix-server/internal/pkg/email"
	"github.com/kenerlee/navix-server/internal/pkg/logger"
	"github.com/kenerlee/navix-server/internal/pkg/oss"
	"github.com/kenerlee/navix-server/internal/pkg/skills"
	"github.com/kenerlee/navix-server/internal/pkg/sms"
	"github.com/kenerlee/navix-server/internal/repository"
	"github.com/kenerlee/navix-server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	logger.Init(&cfg.Log)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		logrus.Fatalf("连接 Redis 失败: %v", err)
	}
	logrus.Info("Redis 已连接")

	// 外部依赖
	emailer := email.NewService(&cfg.Email)
	smsClient := sms.NewClient(&cfg.SMS)
	skillsClient := skills.NewClient(&cfg.Chat)

	var ossClient *oss.Client
	if cfg.OSS.Endpoint != "" {
		ossClient, err = oss.NewClient(&cfg.OSS)
		if err != nil {
			logrus.WithError(err).Warn("OSS 初始化失败，报告库上传功能不可用")
			ossClient = nil
		}
	} else {
		logrus.Warn("OSS 未配置，报告库上传功能不可用")
	}

	// Repository
	profileRepo := repository.NewProfileRepository(rdb)
	inviteRepo := repository.NewInviteRepository(rdb)
	verificationRepo := repository.NewVerificationRepository(rdb)
	consultationRepo := repository.NewConsultationRepository(rdb)
	reportRepo := repository.NewReportRepository(rdb)
	researchRepo := repository.NewResearchReportRepository(rdb)

	// Service
	profileService := service.NewProfileService(profileRepo, emailer, cfg)
	inviteService := service.NewInviteService(inviteRepo, profileService, emailer, cfg)
	quotaService := service.NewQuotaService(profileService, profileRepo, cfg)
	authService := service.NewAuthService(profileService, inviteService, verificationRepo, smsClient, cfg)
	consultationService := service.NewConsultationService(consultationRepo)
	reportService := service.NewReportService(reportRepo)
	researchService := service.NewResearchReportService(researchRepo, ossClient)
	chatService := service.NewChatService(skillsClient, quotaService, cfg)

	// Handler
	authHandler := handler.NewAuthHandler(authService, inviteService)
	userHandler := handler.NewUserHandler(profileService, inviteService)
	adminHandler := handler.NewAdminHandler(profileService, inviteService, consultationService, researchService)
	consultationHandler := handler.NewConsultationHandler(consultationService)
	reportHandler := handler.NewReportHandler(reportService)
	discoveryHandler := handler.NewDiscoveryHandler(researchService)
	chatHandler := handler.NewChatHandler(chatService)

	// Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		adminHandler,
		consultationHandler,
		reportHandler,
		discoveryHandler,
		chatHandler,
		profileService,
		quotaService,
		cfg,
	)
	engine := router.Setup()

	// 定时任务
	cronService := cron.NewService(inviteService, profileService, emailer)
	cronService.Start()
	defer cronService.Stop()

	// 启动服务器，支持平滑退出
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	go func() {
		logrus.Infof("服务启动于 %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("收到退出信号，开始平滑关闭")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("平滑关闭失败: %v", err)
	}
	logrus.Info("服务已退出")
}
