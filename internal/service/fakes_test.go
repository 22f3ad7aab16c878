package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/college-records-api/internal/models"
	appErrors "github.com/noah-isme/college-records-api/pkg/errors"
)

// memStore is an in-memory stand-in for the postgres schema.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*models.User
	departments map[string]*models.Department
	students    map[string]*models.Student
	faculty     map[string]*models.Faculty
	courses     map[string]*models.Course
	enrollments map[string]bool
	audit       []*models.AuditLog
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[string]*models.User{},
		departments: map[string]*models.Department{},
		students:    map[string]*models.Student{},
		faculty:     map[string]*models.Faculty{},
		courses:     map[string]*models.Course{},
		enrollments: map[string]bool{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func enrollmentKey(studentID string, courseID int64) string {
	return fmt.Sprintf("%s|%d", studentID, courseID)
}

func (m *memStore) userByID(id string) *models.User {
	for _, u := range m.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userByID(id)
	if u == nil {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.users[user.Username]; ok {
		*user = *existing
		return false, nil
	}
	if user.ID == "" {
		user.ID = "u-" + user.Username
	}
	cp := *user
	r.s.users[user.Username] = &cp
	return true, nil
}

func (r fakeUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, len(out), nil
}

func (r fakeUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u := r.s.userByID(id); u != nil {
		u.LastLogin = &ts
	}
	return nil
}

func (r fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u := r.s.userByID(id)
	if u == nil {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (r fakeUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, log)
	return nil
}

type fakeDepartmentRepo struct{ s *memStore }

func (r fakeDepartmentRepo) Create(ctx context.Context, dept *models.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[dept.Name]; ok {
		return &pq.Error{Code: "23505"}
	}
	dept.ID = r.s.id()
	cp := *dept
	r.s.departments[dept.Name] = &cp
	return nil
}

func (r fakeDepartmentRepo) GetOrCreate(ctx context.Context, name string) (*models.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if d, ok := r.s.departments[name]; ok {
		cp := *d
		return &cp, nil
	}
	d := &models.Department{ID: r.s.id(), Name: name}
	r.s.departments[name] = d
	cp := *d
	return &cp, nil
}

func (r fakeDepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakeFacultyRepo struct{ s *memStore }

func (r fakeFacultyRepo) detail(f *models.Faculty) *models.FacultyDetail {
	d := &models.FacultyDetail{Faculty: *f}
	if u := r.s.userByID(f.UserID); u != nil {
		d.Username = u.Username
	}
	for _, dept := range r.s.departments {
		if dept.ID == f.DepartmentID {
			d.DepartmentName = dept.Name
		}
	}
	return d
}

func (r fakeFacultyRepo) FindByUserID(ctx context.Context, userID string) (*models.FacultyDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.faculty[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r.detail(f), nil
}

func (r fakeFacultyRepo) FindByUsername(ctx context.Context, username string) (*models.FacultyDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	f, ok := r.s.faculty[u.ID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return r.detail(f), nil
}

func (r fakeFacultyRepo) CreateWithStaff(ctx context.Context, f *models.Faculty) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.faculty[f.UserID]; ok {
		return false, nil
	}
	cp := *f
	r.s.faculty[f.UserID] = &cp
	if u := r.s.userByID(f.UserID); u != nil {
		u.IsStaff = true
	}
	return true, nil
}

type fakeStudentRepo struct{ s *memStore }

func (r fakeStudentRepo) FindByRollNo(ctx context.Context, rollNo string) (*models.Student, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.students[rollNo]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *st
	return &cp, nil
}

func (r fakeStudentRepo) CreateIfAbsent(ctx context.Context, st *models.Student) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.students[st.RollNo]; ok {
		return false, nil
	}
	for _, existing := range r.s.students {
		if existing.UserID == st.UserID {
			return false, nil
		}
	}
	cp := *st
	r.s.students[st.RollNo] = &cp
	return true, nil
}

func (r fakeStudentRepo) ListByCourse(ctx context.Context, courseID int64) ([]models.StudentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.StudentDetail
	for _, st := range r.s.students {
		if r.s.enrollments[enrollmentKey(st.UserID, courseID)] {
			out = append(out, models.StudentDetail{Student: *st})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNo < out[j].RollNo })
	return out, nil
}

func (r fakeStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.students {
		if st.UserID == userID {
			return &models.StudentDetail{Student: *st}, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeCourseRepo struct{ s *memStore }

func (r fakeCourseRepo) byID(id int64) *models.Course {
	for _, c := range r.s.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r fakeCourseRepo) FindByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.byID(id)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	return &models.CourseDetail{Course: *c}, nil
}

func (r fakeCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[code]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r fakeCourseRepo) CreateIfAbsent(ctx context.Context, c *models.Course) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[c.Code]; ok {
		return false, nil
	}
	c.ID = r.s.id()
	cp := *c
	r.s.courses[c.Code] = &cp
	return true, nil
}

type fakeEnrollmentRepo struct{ s *memStore }

func (r fakeEnrollmentRepo) CreateIfAbsent(ctx context.Context, studentID string, courseID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := enrollmentKey(studentID, courseID)
	if r.s.enrollments[key] {
		return false, nil
	}
	r.s.enrollments[key] = true
	return true, nil
}

func (r fakeEnrollmentRepo) Delete(ctx context.Context, studentID string, courseID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := enrollmentKey(studentID, courseID)
	if !r.s.enrollments[key] {
		return false, nil
	}
	delete(r.s.enrollments, key)
	return true, nil
}

// fakeCacheRepo records keys and deleted patterns.
type fakeCacheRepo struct {
	mu      sync.Mutex
	values  map[string]interface{}
	deleted []string
	getErr  error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: map[string]interface{}{}}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, pattern)
	prefix := pattern
	if n := len(prefix); n > 0 && prefix[n-1] == '*' {
		prefix = prefix[:n-1]
	}
	for key := range f.values {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.values, key)
		}
	}
	return nil
}

type testServices struct {
	store       *memStore
	users       *UserService
	departments *DepartmentService
	faculty     *FacultyService
	courses     *CourseService
	imports     *ImportService
}

func newTestServices(cache *CacheService) *testServices {
	store := newMemStore()
	users := NewUserService(fakeUserRepo{store}, zap.NewNop())
	users.cost = bcrypt.MinCost
	departments := NewDepartmentService(fakeDepartmentRepo{store}, nil)
	faculty := NewFacultyService(fakeFacultyRepo{store}, users, departments, nil, zap.NewNop())
	courses := NewCourseService(fakeCourseRepo{store}, fakeStudentRepo{store}, fakeEnrollmentRepo{store}, cache, time.Minute, zap.NewNop())
	imports := NewImportService(ImportServiceParams{
		Users:       users,
		Departments: departments,
		Students:    fakeStudentRepo{store},
		Courses:     fakeCourseRepo{store},
		FacultyRepo: fakeFacultyRepo{store},
		Faculty:     faculty,
		Enrollments: courses,
	})
	return &testServices{store: store, users: users, departments: departments, faculty: faculty, courses: courses, imports: imports}
}
