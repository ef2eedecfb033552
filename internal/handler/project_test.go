package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-archive/internal/middleware"
	"github.com/iliyamo/project-archive/internal/queue"
	"github.com/iliyamo/project-archive/internal/repository"
)

type projectFixture struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	files  *fakeFiles
	events *fakeEvents
}

func newProjectFixture(t *testing.T) projectFixture {
	db, mock := newMock(t)
	f := projectFixture{e: newEcho(), mock: mock, files: &fakeFiles{}, events: &fakeEvents{}}
	h := NewProjectHandler(repository.NewProjectRepo(db), f.files, f.events)

	auth := middleware.JWTAuth(testSecret)
	f.e.GET("/projects", h.List)
	f.e.GET("/projects/mine", h.Mine, auth)
	f.e.GET("/projects/:id", h.Get)
	f.e.POST("/projects", h.Create, auth)
	f.e.PUT("/projects/:id", h.Update, auth)
	f.e.DELETE("/projects/:id", h.Delete, auth)
	return f
}

func (f projectFixture) multipart(t *testing.T, method, target string, fields [][2]string, file string) *httptest.ResponseRecorder {
	body, ctype := multipartBody(t, fields, file)
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, ctype)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, 1))
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

var projectFields = [][2]string{
	{"type_id", "3"},
	{"project_name_th", "ระบบจัดเก็บ"},
	{"project_name_en", "Archive System"},
	{"keywords", `["archive","go"]`},
	{"date", "2024-05-01"},
	{"role_group", `[{"user_id":1,"role_group":"advisor"},{"user_id":2,"role_group":"student"}]`},
}

func TestCreateProjectWithoutFile(t *testing.T) {
	f := newProjectFixture(t)

	rec := f.multipart(t, http.MethodPost, "/projects", projectFields, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decode(t, rec)["message"])
	assert.Empty(t, f.files.saved)
	assert.Empty(t, f.events.events)
}

func TestCreateProjectBadForm(t *testing.T) {
	f := newProjectFixture(t)

	for name, field := range map[string][2]string{
		"members":  {"members", `{"user_id":1}`},
		"keywords": {"keywords", "go, archive"},
		"date":     {"date", "01/05/2024"},
		"type":     {"type_id", "three"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.multipart(t, http.MethodPost, "/projects", [][2]string{field}, "report.pdf")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, f.files.saved)
}

func TestCreateProject(t *testing.T) {
	f := newProjectFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM type_projects").WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectQuery(q("user_id IN ($1, $2)")).WithArgs(1, 2).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	f.mock.ExpectQuery("INSERT INTO projects").
		WithArgs(3, "ระบบจัดเก็บ", "Archive System", nil, nil, `["archive","go"]`, sqlmock.AnyArg(),
			"report.pdf", "/uploads/stored-report.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(42))
	f.mock.ExpectExec("DELETE FROM user_project_mapping").WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("INSERT INTO user_project_mapping").
		WithArgs(1, 42, "advisor", 2, 42, "student").
		WillReturnResult(sqlmock.NewResult(0, 2))
	f.mock.ExpectCommit()

	rec := f.multipart(t, http.MethodPost, "/projects", projectFields, "report.pdf")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Project added successfully","project_id":42}`, rec.Body.String())

	assert.Empty(t, f.files.removed)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, queue.ProjectCreated, f.events.events[0].Type)
	assert.Equal(t, int64(42), f.events.events[0].ProjectID)
	assert.Equal(t, int64(1), f.events.events[0].UserID)
}

func TestCreateProjectRemovesFileOnFailure(t *testing.T) {
	f := newProjectFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM type_projects").WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	f.mock.ExpectRollback()

	rec := f.multipart(t, http.MethodPost, "/projects", projectFields, "report.pdf")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"/uploads/stored-report.pdf"}, f.files.removed)
	assert.Empty(t, f.events.events)
}

func TestUpdateProjectReplacesFile(t *testing.T) {
	f := newProjectFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FOR UPDATE").WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"file_name", "file_path"}).AddRow("old.pdf", "/uploads/old.pdf"))
	f.mock.ExpectQuery("FROM type_projects").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectQuery("FROM users").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	f.mock.ExpectExec("UPDATE projects SET").WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectExec("DELETE FROM user_project_mapping").WillReturnResult(sqlmock.NewResult(0, 3))
	f.mock.ExpectExec("INSERT INTO user_project_mapping").WillReturnResult(sqlmock.NewResult(0, 2))
	f.mock.ExpectCommit()

	rec := f.multipart(t, http.MethodPut, "/projects/5", projectFields, "new.pdf")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"/uploads/old.pdf"}, f.files.removed)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, queue.ProjectUpdated, f.events.events[0].Type)
}

func TestUpdateProjectNotFound(t *testing.T) {
	f := newProjectFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(sqlmock.NewRows([]string{"file_name", "file_path"}))
	f.mock.ExpectRollback()

	rec := f.multipart(t, http.MethodPut, "/projects/5", projectFields, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.files.saved)
	assert.Empty(t, f.files.removed)
}

func TestMyProjectsRequiresToken(t *testing.T) {
	f := newProjectFixture(t)
	rec := doJSON(f.e, http.MethodGet, "/projects/mine", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProjectsYearFilter(t *testing.T) {
	f := newProjectFixture(t)
	f.mock.MatchExpectationsInOrder(false)

	f.mock.ExpectQuery(`^SELECT COUNT\(\*\)`).WithArgs(2024).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	f.mock.ExpectQuery(q("EXTRACT(YEAR FROM p.date) = $1")).WithArgs(2024, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	rec := doJSON(f.e, http.MethodGet, "/projects?year=2567&limit=1&offset=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"data":[],"totalCount":0}`, rec.Body.String())
}

func TestGetProjectNotFound(t *testing.T) {
	f := newProjectFixture(t)
	f.mock.ExpectQuery("ORDER BY u.user_id").WithArgs(99).WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	rec := doJSON(f.e, http.MethodGet, "/projects/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProjectNotFound(t *testing.T) {
	f := newProjectFixture(t)
	f.mock.ExpectQuery("UPDATE projects SET deleted_at").WithArgs(8).WillReturnRows(sqlmock.NewRows([]string{"project_id"}))

	rec := doJSON(f.e, http.MethodDelete, "/projects/8", "", bearer(t, 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.events.events)
}
