package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/fqms/fees-queue-api/api/swagger"
	"github.com/fqms/fees-queue-api/internal/handler"
	"github.com/fqms/fees-queue-api/internal/middleware"
	"github.com/fqms/fees-queue-api/internal/models"
	"github.com/fqms/fees-queue-api/internal/repository"
	"github.com/fqms/fees-queue-api/internal/service"
	"github.com/fqms/fees-queue-api/pkg/cache"
	"github.com/fqms/fees-queue-api/pkg/config"
	"github.com/fqms/fees-queue-api/pkg/database"
	"github.com/fqms/fees-queue-api/pkg/export"
	"github.com/fqms/fees-queue-api/pkg/jobs"
	"github.com/fqms/fees-queue-api/pkg/logger"
	corsmiddleware "github.com/fqms/fees-queue-api/pkg/middleware/cors"
	reqidmiddleware "github.com/fqms/fees-queue-api/pkg/middleware/requestid"
)

// @title Fees Queue Management API
// @version 1.0.0
// @description Queue-based fee payment service for college counters
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	queueRepo := repository.NewQueueRepository(db)

	var cacheRepo service.CacheRepository
	if cfg.Queue.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Queue.StatsCacheTTL, logr, cacheRepo != nil)

	notifier := service.NewQueueNotifier(userRepo, logr, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notifier.Start(ctx)
	defer notifier.Stop()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	queueSvc := service.NewQueueService(queueRepo, counterRepo, userRepo,
		cacheSvc, metrics, notifier, validate, logr, service.QueueServiceConfig{
			TokenPrefix:   cfg.Queue.TokenPrefix,
			StatsCacheTTL: cfg.Queue.StatsCacheTTL,
		})
	paymentSvc := service.NewPaymentService(queueRepo, userRepo,
		cacheSvc, metrics, notifier, export.NewReceiptPDF(cfg.Receipts.CollegeName),
		validate, logr, service.PaymentServiceConfig{ReceiptPrefix: cfg.Receipts.Prefix})
	counterSvc := service.NewCounterService(counterRepo, userRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(queueSvc)
	queueHandler := handler.NewQueueHandler(queueSvc, paymentSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	counterHandler := handler.NewCounterHandler(counterSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", middleware.Audit(userRepo, models.AuditActionLogin, "auth"), authHandler.Login)
	auth.POST("/register/student", middleware.Audit(userRepo, models.AuditActionRegister, "auth"), authHandler.RegisterStudent)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	student := api.Group("/student", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent))
	student.GET("/dashboard", studentHandler.Dashboard)
	student.POST("/payments", studentHandler.Enqueue)
	student.GET("/payments/queue", studentHandler.MyQueue)

	staff := middleware.RequireRoles(models.RoleAccountant, models.RoleAdmin)

	payments := api.Group("/payments", middleware.JWT(authSvc))
	payments.POST("/process", staff, paymentHandler.Process)
	payments.GET("/:id/receipt", paymentHandler.Receipt)
	payments.GET("/:id/receipt.pdf", paymentHandler.ReceiptPDF)

	queue := api.Group("/queue", middleware.JWT(authSvc))
	queue.GET("/counter/:id", staff, queueHandler.CounterQueue)
	queue.GET("/stats/:id", staff, queueHandler.Stats)
	queue.POST("/skip", staff, queueHandler.Skip)
	queue.POST("/remove", staff, queueHandler.Remove)

	counters := api.Group("/counters", middleware.JWT(authSvc))
	counters.GET("", counterHandler.List)
	counters.GET("/:id", counterHandler.Get)
	counters.POST("", middleware.RequireRoles(models.RoleAdmin), counterHandler.Create)
	counters.PATCH("/:id/active", middleware.RequireRoles(models.RoleAdmin), counterHandler.SetActive)
	counters.PATCH("/:id/accountant", middleware.RequireRoles(models.RoleAdmin), counterHandler.AssignAccountant)

	api.GET("/fee-types", middleware.JWT(authSvc), counterHandler.FeeTypes)
	api.GET("/accountants/me", middleware.JWT(authSvc), staff, counterHandler.AccountantMe)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
