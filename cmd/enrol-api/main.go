package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/lms-enrol-api/api/swagger"
	"github.com/noah-isme/lms-enrol-api/internal/handler"
	"github.com/noah-isme/lms-enrol-api/internal/middleware"
	"github.com/noah-isme/lms-enrol-api/internal/models"
	"github.com/noah-isme/lms-enrol-api/internal/repository"
	"github.com/noah-isme/lms-enrol-api/internal/service"
	rediscache "github.com/noah-isme/lms-enrol-api/pkg/cache"
	"github.com/noah-isme/lms-enrol-api/pkg/certpdf"
	"github.com/noah-isme/lms-enrol-api/pkg/config"
	"github.com/noah-isme/lms-enrol-api/pkg/database"
	"github.com/noah-isme/lms-enrol-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-enrol-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-enrol-api/pkg/middleware/requestid"
)

// @title LMS Enrol API
// @version 1.0.0
// @description Gated self-enrolment service with certificate rendering
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, instance cache disabled", "error", err)
		redisClient = nil
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	grantRepo := repository.NewGrantRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Enrolment.InstanceCacheTTL, logr, redisClient != nil)
	caps := service.NewRoleCapabilityChecker()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "lms-enrol-api",
		Audience:           []string{"lms"},
	})

	instanceSvc := service.NewInstanceService(instanceRepo, caps, cacheSvc, service.InstanceDefaults{
		Status:   models.InstanceStatus(cfg.Enrolment.DefaultStatus),
		RoleID:   cfg.Enrolment.DefaultRoleID,
		CacheTTL: cfg.Enrolment.InstanceCacheTTL,
	}, nil, logr)

	eligibilitySvc := service.NewEligibilityService(recordRepo, logr)

	notifySvc := service.NewNotificationService(cfg.Enrolment.NotifyWorkers, logr)
	notifyCtx, cancelNotify := context.WithCancel(context.Background())
	defer cancelNotify()
	notifySvc.Start(notifyCtx)
	defer notifySvc.Stop()

	var enrolmentSvc *service.EnrolmentService
	if cfg.Enrolment.GroupAssignmentEnabled {
		groupSvc := service.NewGroupService(groupRepo, logr)
		enrolmentSvc = service.NewEnrolmentService(instanceSvc, eligibilitySvc, recordRepo, grantRepo, groupSvc, notifySvc, caps, nil, logr)
	} else {
		enrolmentSvc = service.NewEnrolmentService(instanceSvc, eligibilitySvc, recordRepo, grantRepo, nil, notifySvc, caps, nil, logr)
	}

	certSvc := service.NewCertificateService(certRepo, certpdf.NewRenderer(), cfg.Certificates.Issuer, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	enrolHandler := handler.NewEnrolmentHandler(enrolmentSvc, metricsSvc)
	instanceHandler := handler.NewInstanceHandler(instanceSvc)
	certHandler := handler.NewCertificateHandler(certSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	enrol := api.Group("/enrol", middleware.OptionalJWT(authSvc))
	enrol.GET("/:id/eligibility", enrolHandler.CheckEligibility)
	enrol.POST("/:id", middleware.Audit(userRepo, models.AuditActionSelfEnrol, "enrolment"), enrolHandler.SelfEnrol)

	courses := api.Group("/courses", middleware.JWT(authSvc))
	courses.GET("/:courseId/enrolments", enrolHandler.ListRecords)

	instances := api.Group("/instances", middleware.JWT(authSvc))
	instances.GET("", instanceHandler.List)
	instances.GET("/:id", instanceHandler.Get)
	admin := instances.Group("", middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin))
	admin.POST("", middleware.Audit(userRepo, models.AuditActionInstanceCreate, "enrol_instance"), instanceHandler.Create)
	admin.PUT("/:id", middleware.Audit(userRepo, models.AuditActionInstanceUpdate, "enrol_instance"), instanceHandler.Update)
	admin.DELETE("/:id", middleware.Audit(userRepo, models.AuditActionInstanceDelete, "enrol_instance"), instanceHandler.Delete)

	if cfg.Certificates.Enabled {
		certs := api.Group("/certificates", middleware.JWT(authSvc))
		certs.GET("/:id/values", certHandler.Values)
		certs.GET("/:id/pdf", certHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
