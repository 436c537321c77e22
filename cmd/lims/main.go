package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/lims/internal/config"
	"github.com/bitfantasy/lims/internal/lims/entity"
	"github.com/bitfantasy/lims/internal/lims/handler"
	"github.com/bitfantasy/lims/internal/lims/repository"
	"github.com/bitfantasy/lims/internal/lims/service"
	"github.com/bitfantasy/lims/internal/middleware"
	"github.com/bitfantasy/lims/internal/shared/access"
	"github.com/bitfantasy/lims/internal/shared/naming"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting lims service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 迁移LIMS表
	if err := db.AutoMigrate(
		&entity.Status{},
		&entity.Project{},
		&entity.ProjectMember{},
		&entity.Sample{},
		&entity.ContainerType{},
		&entity.Container{},
		&entity.Contents{},
		&entity.Analyte{},
		&entity.Analysis{},
		&entity.AnalysisAnalyte{},
		&entity.Test{},
		&entity.Result{},
		&entity.Batch{},
		&entity.BatchContainer{},
	); err != nil {
		zapLogger.Fatal("Failed to migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)

	// Seed: 标准状态字典
	if err := repos.Status.SeedDefaults(context.Background()); err != nil {
		zapLogger.Warn("Seed default statuses warning", zap.Error(err))
	}

	accessChecker := access.NewMembershipChecker(repos.Project)
	namer := naming.NewRedisGenerator(rdb, cfg.LIMS.NamePrefix)
	services := service.NewServices(repos, db, accessChecker, namer)

	policyProvider := config.NewViperPolicyProvider(cfg.Viper())
	handlers := handler.NewHandlers(services, policyProvider, handler.NewLookupHandler(repos.Status))

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 项目
			projects := authorized.Group("/projects")
			{
				projects.POST("", h.Project.Create)
				projects.GET("", h.Project.List)
				projects.GET("/:id", h.Project.Get)
				projects.POST("/:id/members", h.Project.AddMember)
			}

			// 样品与检测
			samples := authorized.Group("/samples")
			{
				samples.GET("/eligible", h.Sample.ListEligible)
				samples.POST("", h.Sample.Create)
				samples.GET("", h.Sample.List)
				samples.GET("/:id", h.Sample.Get)
				samples.DELETE("/:id", middleware.RequirePermission("lims:sample:delete"), h.Sample.Delete)
				samples.POST("/:id/tests", h.Sample.CreateTest)
				samples.GET("/:id/tests", h.Sample.ListTests)
			}
			authorized.GET("/tests/:id/results", h.Sample.ListTestResults)

			// 容器
			containers := authorized.Group("/containers")
			{
				containers.POST("", h.Container.Create)
				containers.GET("", h.Container.List)
				containers.GET("/:id", h.Container.Get)
				containers.POST("/:id/contents", h.Container.AddContents)
			}
			// 基础字典维护限实验室管理员角色
			containerTypes := authorized.Group("/container-types")
			{
				containerTypes.POST("", middleware.RequireRole("lims_manager"), h.Container.CreateType)
				containerTypes.GET("", h.Container.ListTypes)
			}

			// 分析方法与分析物
			analyses := authorized.Group("/analyses")
			{
				analyses.POST("", middleware.RequireRole("lims_manager"), h.Analysis.Create)
				analyses.GET("", h.Analysis.List)
				analyses.GET("/:id", h.Analysis.Get)
			}
			analytes := authorized.Group("/analytes")
			{
				analytes.POST("", middleware.RequireRole("lims_manager"), h.Analysis.CreateAnalyte)
				analytes.GET("", h.Analysis.ListAnalytes)
			}

			// 批次
			batches := authorized.Group("/batches")
			{
				batches.POST("/validate-compatibility", h.Batch.ValidateCompatibility)
				batches.POST("", h.Batch.Create)
				batches.GET("", h.Batch.List)
				batches.GET("/:id", h.Batch.Get)
				batches.DELETE("/:id", middleware.RequirePermission("lims:batch:delete"), h.Batch.Delete)
				batches.GET("/:id/worksheet", h.Batch.Worksheet)
				batches.POST("/:id/results", h.Result.EnterResults)
			}

			// 字典
			authorized.GET("/statuses", h.Lookup.ListStatuses)
		}
	}
}
