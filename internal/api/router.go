package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kenerlee/navix-server/config"
	"github.com/kenerlee/navix-server/internal/api/handler"
	"github.com/kenerlee/navix-server/internal/api/middleware"
	"github.com/kenerlee/navix-server/internal/service"
)

type Router struct {
	authHandler         *handler.AuthHandler
	userHandler         *handler.UserHandler
	adminHandler        *handler.AdminHandler
	consultationHandler *handler.ConsultationHandler
	reportHandler       *handler.ReportHandler
	discoveryHandler    *handler.DiscoveryHandler
	chatHandler         *handler.ChatHandler
	profileService      *service.ProfileService
	quotaService        *service.QuotaService
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	consultationHandler *handler.ConsultationHandler,
	reportHandler *handler.ReportHandler,
	discoveryHandler *handler.DiscoveryHandler,
	chatHandler *handler.ChatHandler,
	profileService *service.ProfileService,
	quotaService *service.QuotaService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		userHandler:         userHandler,
		adminHandler:        adminHandler,
		consultationHandler: consultationHandler,
		reportHandler:       reportHandler,
		discoveryHandler:    discoveryHandler,
		chatHandler:         chatHandler,
		profileService:      profileService,
		quotaService:        quotaService,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api")
	{
		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.GET("/captcha", r.authHandler.GetCaptcha)
			auth.POST("/captcha", r.authHandler.VerifyCaptcha)
			auth.POST("/sms/send", middleware.RateLimit(r.cfg.RateLimit), r.authHandler.SendSMS)
			auth.POST("/sms/verify", r.authHandler.VerifySMS)
			auth.POST("/invite/validate", middleware.RateLimit(r.cfg.RateLimit), r.authHandler.ValidateInvite)
		}

		// 公开接口 - 咨询意向与报告库
		api.POST("/consultations", middleware.RateLimit(r.cfg.RateLimit), r.consultationHandler.Create)
		discovery := api.Group("/discovery")
		{
			discovery.GET("", r.discoveryHandler.List)
			discovery.GET("/:id", r.discoveryHandler.Get)
			discovery.GET("/:id/download", r.discoveryHandler.Download)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.POST("/auth/invite/activate", r.authHandler.ActivateInvite)
			authenticated.POST("/auth/bootstrap-admin", r.authHandler.BootstrapAdmin)

			user := authenticated.Group("/user")
			{
				user.GET("/me", r.userHandler.Me)
				user.PUT("/me", r.userHandler.UpdateProfile)
				user.GET("/quota", r.userHandler.Quota)
				user.GET("/usage", r.userHandler.Quota)
				user.GET("/invites", r.userHandler.ListInvites)
				user.POST("/invites", r.userHandler.CreateInvite)
			}

			reports := authenticated.Group("/reports")
			reports.Use(middleware.Activated(r.profileService))
			{
				reports.POST("", r.reportHandler.Create)
				reports.GET("", r.reportHandler.List)
				reports.GET("/:id", r.reportHandler.Get)
				reports.PUT("/:id", r.reportHandler.Update)
				reports.DELETE("/:id", r.reportHandler.Delete)
			}
		}

		// 对话：登录可选，未登录共用匿名配额
		api.POST("/chat",
			middleware.OptionalAuth(r.cfg.JWT.Secret),
			middleware.Quota(r.quotaService),
			r.chatHandler.Stream)

		// 管理后台
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.Admin(r.profileService))
		{
			admin.GET("/users", r.adminHandler.ListUsers)
			admin.PUT("/users/:id/level", r.adminHandler.UpdateUserLevel)
			admin.GET("/invites", r.adminHandler.ListInvites)
			admin.POST("/invites", r.adminHandler.CreateInvites)
			admin.GET("/consultations", r.adminHandler.ListConsultations)
			admin.PUT("/consultations/:id", r.adminHandler.UpdateConsultation)
			admin.POST("/research-reports", r.adminHandler.CreateResearchReport)
			admin.GET("/research-reports", r.adminHandler.ListResearchReports)
			admin.PUT("/research-reports/:id/visibility", r.adminHandler.ToggleResearchReport)
			admin.DELETE("/research-reports/:id", r.adminHandler.DeleteResearchReport)
		}
	}

	return engine
}
