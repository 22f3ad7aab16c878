package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/internal/repository"
	"github.com/noah-isme/college-records-api/internal/service"
	"github.com/noah-isme/college-records-api/pkg/cache"
	"github.com/noah-isme/college-records-api/pkg/config"
	"github.com/noah-isme/college-records-api/pkg/database"
	"github.com/noah-isme/college-records-api/pkg/logger"
)

var errUsage = errors.New("usage")

type importer interface {
	ImportReader(ctx context.Context, kind models.ImportKind, r io.Reader) (*models.ImportReport, error)
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, roster cache will not be invalidated", zap.Error(err))
		} else {
			redisClient = client
			defer client.Close()
		}
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), nil, cfg.Cache.AttendanceTTL, logr, redisClient != nil)

	if err := run(ctx, os.Args[1:], newImporter(db, cacheSvc, logr), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		logr.Error("import failed", zap.Error(err))
		os.Exit(1)
	}
}

// run parses flags and replays one file, or every <kind>.csv in a directory
// in dependency order.
func run(ctx context.Context, args []string, imp importer, out io.Writer) error {
	fs := flag.NewFlagSet("college-import", flag.ContinueOnError)
	fs.SetOutput(out)
	kind := fs.String("kind", "", "users, students, faculty, courses or enrollments")
	file := fs.String("file", "", "CSV file to import, - for stdin")
	dir := fs.String("dir", "", "directory holding <kind>.csv files; imports every kind present")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if *dir != "" {
		for _, k := range models.ImportKinds {
			path := filepath.Join(*dir, string(k)+".csv")
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				continue
			}
			report, err := importFile(ctx, imp, k, path)
			if err != nil {
				return err
			}
			if err := enc.Encode(report); err != nil {
				return err
			}
		}
		return nil
	}

	k := models.ImportKind(strings.ToLower(*kind))
	if !k.Valid() || *file == "" {
		fs.Usage()
		return errUsage
	}
	report, err := importFile(ctx, imp, k, *file)
	if err != nil {
		return err
	}
	return enc.Encode(report)
}

func importFile(ctx context.Context, imp importer, kind models.ImportKind, path string) (*models.ImportReport, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	report, err := imp.ImportReader(ctx, kind, r)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", kind, err)
	}
	return report, nil
}

func newImporter(db *sqlx.DB, cacheSvc *service.CacheService, logr *zap.Logger) *service.ImportService {
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)

	userSvc := service.NewUserService(userRepo, logr)
	departmentSvc := service.NewDepartmentService(repository.NewDepartmentRepository(db), nil)
	facultySvc := service.NewFacultyService(facultyRepo, userSvc, departmentSvc, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, studentRepo, repository.NewEnrollmentRepository(db), cacheSvc, 0, logr)

	return service.NewImportService(service.ImportServiceParams{
		Users:       userSvc,
		Departments: departmentSvc,
		Students:    studentRepo,
		Courses:     courseRepo,
		FacultyRepo: facultyRepo,
		Faculty:     facultySvc,
		Enrollments: courseSvc,
		Logger:      logr,
	})
}
