package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
	"github.com/noah-isme/college-records-api/pkg/response"
)

type departmentService interface {
	List(ctx context.Context) ([]models.Department, error)
	Create(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error)
}

type facultyService interface {
	Provision(ctx context.Context, req models.CreateFacultyRequest) (*models.Faculty, bool, error)
}

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
}

// AdminHandler serves the admin-only reference data endpoints.
type AdminHandler struct {
	departments departmentService
	faculty     facultyService
	users       userService
}

func NewAdminHandler(departments departmentService, faculty facultyService, users userService) *AdminHandler {
	return &AdminHandler{departments: departments, faculty: faculty, users: users}
}

// ListDepartments godoc
// @Summary List departments
// @Tags Departments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *AdminHandler) ListDepartments(c *gin.Context) {
	depts, err := h.departments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if depts == nil {
		depts = []models.Department{}
	}
	response.OK(c, depts)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Departments
// @Accept json
// @Produce json
// @Param payload body models.CreateDepartmentRequest true "Department"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /departments [post]
func (h *AdminHandler) CreateDepartment(c *gin.Context) {
	var req models.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid department payload"))
		return
	}
	dept, err := h.departments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dept)
}

// CreateFaculty godoc
// @Summary Provision faculty
// @Description Creates the account, department and profile as needed; the account is flagged as staff
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body models.CreateFacultyRequest true "Faculty"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /faculty [post]
func (h *AdminHandler) CreateFaculty(c *gin.Context) {
	var req models.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	f, created, err := h.faculty.Provision(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.JSON(c, status, f, nil)
}

// ListUsers godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param role query string false "Role filter"
// @Param search query string false "Username or name search"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	filter := models.UserFilter{Search: c.Query("search")}
	filter.Page, _ = strconv.Atoi(c.Query("page"))
	filter.PageSize, _ = strconv.Atoi(c.Query("page_size"))
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseRole(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role"))
			return
		}
		filter.Role = &role
	}

	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	response.JSON(c, http.StatusOK, users, pagination)
}
