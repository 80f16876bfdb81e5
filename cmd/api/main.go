package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/damoang/angple-blog/internal/config"
	"github.com/damoang/angple-blog/internal/domain"
	"github.com/damoang/angple-blog/internal/event"
	"github.com/damoang/angple-blog/internal/handler"
	"github.com/damoang/angple-blog/internal/middleware"
	"github.com/damoang/angple-blog/internal/migration"
	"github.com/damoang/angple-blog/internal/repository"
	"github.com/damoang/angple-blog/internal/routes"
	"github.com/damoang/angple-blog/internal/service"
	pkgcache "github.com/damoang/angple-blog/pkg/cache"
	"github.com/damoang/angple-blog/pkg/jwt"
	pkglogger "github.com/damoang/angple-blog/pkg/logger"
	pkgredis "github.com/damoang/angple-blog/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// @title           Angple Blog API
// @version         1.0
// @description     Angple Blog - posts, pages, redirects and revision history
//
// @license.name    MIT
//
// @host            localhost:8082
// @BasePath        /api/v2
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

const shutdownTimeout = 10 * time.Second

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath(env string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	dotenvFiles := config.LoadDotEnv(env)

	// 로거 초기화
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	// 설정 로드
	configPath := getConfigPath(env)
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	config.LogResolved(cfg)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")
	if err := migration.Run(db); err != nil {
		pkglogger.Warn("Migration warning: %v", err)
	}

	// Redis 연결 (선택)
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	} else {
		pkglogger.Info("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn, cfg.JWT.RefreshIn)

	bus := event.NewBus()

	// Repositories
	postRepo := repository.NewPostRepository(db)
	pageRepo := repository.NewPageRepository(db)
	redirectRepo := repository.NewRedirectRepository(db)
	revisionRepo := repository.NewRevisionRepository(db)

	// Services
	registry := service.NewOwnerRegistry()
	registry.Register(domain.EntityPost, service.NewPostRevisionStore(postRepo))
	registry.Register(domain.EntityPage, service.NewPageRevisionStore(pageRepo))

	revisionService := service.NewRevisionService(revisionRepo, registry, bus, service.RevisionOptions{
		MaxPerEntity:          cfg.Revisions.MaxPerEntity,
		SnapshotBeforeRestore: cfg.Revisions.SnapshotBeforeRestore,
		ConflictRetries:       cfg.Revisions.ConflictRetries,
	})
	postService := service.NewPostService(postRepo, revisionService, bus)
	pageService := service.NewPageService(pageRepo, revisionService, bus)
	redirectService := service.NewRedirectService(redirectRepo, cacheService, bus, cfg.Redirects.LockTTL)

	redirectCache := service.NewRedirectCache(redirectRepo, cacheService, cfg.Redirects.CacheTTL)
	redirectCache.Attach(bus)
	redirectCache.Start()

	hitRecorder := service.NewHitRecorder(redirectRepo, cfg.Redirects.HitFlushInterval, 0)
	hitRecorder.Start()

	// Gin 라우터 생성
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.InputSanitizer("/api/"))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.Redirects(redirectCache, hitRecorder, middleware.RedirectConfig{
		Enabled: cfg.Redirects.Enabled,
		MaxHops: cfg.Redirects.MaxHops,
	}))

	router.GET("/health", healthHandler(db, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.IsDevelopment() {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes.Setup(router, routes.Handlers{
		Post:     handler.NewPostHandler(postService),
		Page:     handler.NewPageHandler(pageService),
		Redirect: handler.NewRedirectHandler(redirectService),
		Revision: handler.NewRevisionHandler(revisionService),
	}, jwtManager, redisClient, cfg)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "not found"}})
	})

	// 서버 시작
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	pkglogger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		pkglogger.Error("Server shutdown failed: %v", err)
	}

	// 남은 히트 기록 후 종료
	hitRecorder.Stop()
	redirectCache.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	pkglogger.Info("Server stopped")
}

func corsConfig(cfg *config.Config) cors.Config {
	var origins []string
	for _, o := range strings.Split(cfg.CORS.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func healthHandler(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			middleware.SetDBConnectionsActive(float64(sqlDB.Stats().InUse))
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = "unreachable"
			}
		}
		c.JSON(code, status)
	}
}

// initDB MySQL 연결 초기화
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("DSN 파싱 실패: %w", err)
	}
	if mysqlCfg.Params == nil {
		mysqlCfg.Params = map[string]string{}
	}
	mysqlCfg.Params["time_zone"] = "'+09:00'"

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
