package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/handler"
	"github.com/noah-isme/college-records-api/internal/repository"
	"github.com/noah-isme/college-records-api/internal/router"
	"github.com/noah-isme/college-records-api/internal/service"
	"github.com/noah-isme/college-records-api/pkg/cache"
	"github.com/noah-isme/college-records-api/pkg/config"
	"github.com/noah-isme/college-records-api/pkg/database"
	"github.com/noah-isme/college-records-api/pkg/logger"
)

// @title College Records API
// @version 1.0.0
// @description Accounts, courses, attendance, assessments and CSV reconciliation for a college
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	ttl := cfg.Cache.AttendanceTTL
	cacheSvc := service.NewCacheService(cacheRepo, metrics, ttl, logr, cfg.Cache.Enabled && redisClient != nil)

	userSvc := service.NewUserService(userRepo, logr)
	authSvc := service.NewAuthService(userRepo, userSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	departmentSvc := service.NewDepartmentService(departmentRepo, validate)
	facultySvc := service.NewFacultyService(facultyRepo, userSvc, departmentSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, studentRepo, enrollmentRepo, cacheSvc, ttl, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, courseSvc, cacheSvc, metrics, ttl, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, courseSvc, validate)
	resultSvc := service.NewResultService(resultRepo, assessmentSvc, courseSvc, metrics, logr)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:    studentRepo,
		Attendance:  attendanceSvc,
		Results:     resultSvc,
		Faculty:     facultySvc,
		Courses:     courseSvc,
		Assessments: assessmentSvc,
		Counters: service.AdminCounters{
			Users:       userRepo,
			Students:    studentRepo,
			Faculty:     facultyRepo,
			Courses:     courseRepo,
			Departments: departmentRepo,
		},
		Logger: logr,
	})
	importSvc := service.NewImportService(service.ImportServiceParams{
		Users:       userSvc,
		Departments: departmentSvc,
		Students:    studentRepo,
		Courses:     courseRepo,
		FacultyRepo: facultyRepo,
		Faculty:     facultySvc,
		Enrollments: courseSvc,
		Metrics:     metrics,
		Logger:      logr,
	})
	exportSvc := service.NewExportService(service.ExportServiceParams{
		Users:       userRepo,
		Students:    studentRepo,
		Faculty:     facultyRepo,
		Courses:     courseRepo,
		Enrollments: enrollmentRepo,
		Attendance:  attendanceRepo,
		PDFEnabled:  cfg.Exports.PDFEnabled,
		Logger:      logr,
	})

	checks := map[string]handler.Pinger{"postgres": db, "redis": nil}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := router.New(cfg, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Course:     handler.NewCourseHandler(courseSvc, attendanceSvc, assessmentSvc),
		Assessment: handler.NewAssessmentHandler(resultSvc),
		Admin:      handler.NewAdminHandler(departmentSvc, facultySvc, userSvc),
		Transfer:   handler.NewTransferHandler(importSvc, exportSvc, cfg.Imports.MaxUploadBytes),
		Metrics:    handler.NewMetricsHandler(metrics.Handler(), checks, logr),
	}, router.Dependencies{
		Tokens:   authSvc,
		Observer: metrics,
		Audit:    userRepo,
		Logger:   logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("cache", cacheSvc.Enabled()))
		serverErrors <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	case sig := <-signals:
		logr.Info("shutdown requested", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
