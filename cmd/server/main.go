package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/config"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/domain/fiber/handler"
	applogger "github.com/Puru1375/ai-smart-internship-allocation/internal/logger"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/metrics"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/middleware"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/repository"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/service"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}

	appConfig := config.LoadAppConfig()
	zlog, err := applogger.New(appConfig.Env, appConfig.LogLevel)
	if err != nil {
		log.Fatalf("Could not build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	metrics.Register(prometheus.DefaultRegisterer)

	db := ConnectDB(zlog)
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}

	locker, lockWait := newRunLocker(zlog)

	applicantRepo := repository.NewApplicantRepository(db)
	internshipRepo := repository.NewInternshipRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	optimizer := service.NewOptimizerService(config.LoadOptimizerConfig(), zlog.Named("optimizer"))

	allocationUC := usecase.NewAllocationUsecase(applicantRepo, internshipRepo, matchRepo, auditRepo, optimizer, locker, lockWait, zlog.Named("allocation"))
	matchUC := usecase.NewMatchUsecase(matchRepo, applicantRepo, zlog.Named("match"))
	reportUC := usecase.NewReportUsecase(matchRepo, applicantRepo, internshipRepo, auditRepo, optimizer)

	app := fiber.New(fiber.Config{
		AppName: appConfig.Name,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			// Status code defaults to 500
			code := fiber.StatusInternalServerError

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			message := err.Error()
			if message == "" {
				message = "Internal Server Error"
			}

			return ctx.Status(code).JSON(fiber.Map{"success": false, "message": message})
		},
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: !appConfig.IsProduction(),
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(ctx) == nil
		},
	}))
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.RateLimiter(50, 1*time.Minute))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := handler.NewAllocationHandler(allocationUC, matchUC, reportUC)
	h.RegisterRoutes(app, middleware.Authenticate(config.LoadAuthConfig().GatewaySecret))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			zlog.Error("shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server running", zap.String("port", appConfig.Port))
	if err := app.Listen(appConfig.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func ConnectDB(zlog *zap.Logger) *gorm.DB {
	dbConfig := config.LoadDBConfig()
	appConfig := config.LoadAppConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
		dbConfig.TimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal("could not connect to database", zap.Error(err))
	}
	pgDB, err := db.DB()
	if err != nil {
		zlog.Fatal("could not get database instance", zap.Error(err))
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}

	if err := model.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	return db
}

// newRunLocker shares the allocation lock through Redis when REDIS_ADDR is
// set, otherwise it only serialises runs inside this process.
func newRunLocker(zlog *zap.Logger) (service.RunLocker, time.Duration) {
	redisConfig := config.LoadRedisConfig()
	if !redisConfig.Enabled() {
		zlog.Warn("REDIS_ADDR not set, allocation lock is process-local")
		return service.NewLocalRunLocker(), redisConfig.LockTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Fatal("could not connect to redis", zap.String("addr", redisConfig.Addr), zap.Error(err))
	}
	return service.NewRedisRunLocker(client, redisConfig.LockTTL, zlog.Named("lock")), redisConfig.LockTTL
}
