package router

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/college-records-api/api/swagger"
	"github.com/noah-isme/college-records-api/internal/handler"
	"github.com/noah-isme/college-records-api/internal/middleware"
	"github.com/noah-isme/college-records-api/internal/models"
	"github.com/noah-isme/college-records-api/pkg/config"
	"github.com/noah-isme/college-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/college-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/college-records-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler mounted by the router.
type Handlers struct {
	Auth       *handler.AuthHandler
	Dashboard  *handler.DashboardHandler
	Course     *handler.CourseHandler
	Assessment *handler.AssessmentHandler
	Admin      *handler.AdminHandler
	Transfer   *handler.TransferHandler
	Metrics    *handler.MetricsHandler
}

type tokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Dependencies are the cross-cutting collaborators used by middleware.
type Dependencies struct {
	Tokens   tokenValidator
	Observer requestObserver
	Audit    auditWriter
	Logger   *zap.Logger
}

// New builds the gin engine with the full route table.
func New(cfg *config.Config, h Handlers, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Observer))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	// The auth service audits password changes itself.
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, log, action, resource)
	}

	staff := []models.UserRole{models.RoleFaculty, models.RoleAdmin}

	{
		secured.GET("/auth/me", h.Auth.Me)
		secured.POST("/auth/password", h.Auth.ChangePassword)

		secured.GET("/dashboard/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Student)
		secured.GET("/dashboard/faculty", middleware.RequireRoles(models.RoleFaculty), h.Dashboard.Faculty)
		secured.GET("/dashboard/admin", middleware.RequireRoles(models.RoleAdmin), h.Dashboard.Admin)
	}

	courses := secured.Group("/courses/:id")
	{
		courses.GET("", h.Dashboard.Course)
		courses.POST("/attendance", middleware.RequireRoles(staff...), audit(models.AuditActionMarkAttendance, "course"), h.Course.MarkAttendance)
		courses.GET("/attendance/summary", middleware.RequireRoles(staff...), h.Course.AttendanceSummary)
		courses.POST("/assessments", middleware.RequireRoles(staff...), audit(models.AuditActionCreateAssessment, "course"), h.Course.CreateAssessment)
	}

	assessments := secured.Group("/assessments/:id")
	{
		assessments.GET("", h.Dashboard.Assessment)
		assessments.POST("/results", middleware.RequireRoles(staff...), audit(models.AuditActionEnterResults, "assessment"), h.Assessment.EnterResults)
	}

	secured.GET("/students/:id/attendance",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleFaculty), middleware.Self),
		h.Course.StudentAttendance)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/departments", h.Admin.ListDepartments)
		admin.POST("/departments", audit(models.AuditActionCreateDepartment, "department"), h.Admin.CreateDepartment)
		admin.POST("/faculty", audit(models.AuditActionProvisionFaculty, "faculty"), h.Admin.CreateFaculty)
		admin.POST("/courses/:id/enrollments", audit(models.AuditActionEnroll, "course"), h.Course.EnrollStudent)
		admin.DELETE("/courses/:id/enrollments/:student_id", audit(models.AuditActionUnenroll, "course"), h.Course.UnenrollStudent)
		admin.POST("/imports/:kind", audit(models.AuditActionImport, "import"), h.Transfer.Import)
		admin.GET("/exports/:kind", h.Transfer.Export)
	}

	return r
}
