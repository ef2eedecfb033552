package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/project-archive/internal/config"
	"github.com/iliyamo/project-archive/internal/repository"
	"github.com/iliyamo/project-archive/internal/utils"
)

var userCols = []string{"user_id", "role_id", "role_name", "email", "password_hash",
	"first_name", "last_name", "created_at", "updated_at", "deleted_at"}

func authServer(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	db, mock := newMock(t)
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 120, BcryptCost: bcrypt.MinCost}
	return NewAuthHandler(cfg, repository.NewUserRepo(db)), mock
}

func TestLogin(t *testing.T) {
	h, mock := authServer(t)
	e := newEcho()
	e.POST("/login", h.Login)

	hash, err := utils.HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(q("WHERE u.email = $1")).WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(7, 2, "student", "ann@example.com", hash, "Ann", "Lee", fixedTime, fixedTime, nil))

	rec := doJSON(e, http.MethodPost, "/login", `{"email":" Ann@Example.com ","password":"pw123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])

	claims, err := utils.ParseAccessToken(testSecret, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, int64(2), claims.RoleID)
	assert.Equal(t, "Ann", *claims.FirstName)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestLoginDeletedAccount(t *testing.T) {
	h, mock := authServer(t)
	e := newEcho()
	e.POST("/login", h.Login)

	hash, err := utils.HashPassword("pw123", bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("WHERE u.email").WillReturnRows(sqlmock.NewRows(userCols).
		AddRow(7, 2, "student", "ann@example.com", hash, nil, nil, fixedTime, fixedTime, fixedTime))

	rec := doJSON(e, http.MethodPost, "/login", `{"email":"ann@example.com","password":"pw123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestRegisterValidation(t *testing.T) {
	h, _ := authServer(t)
	e := newEcho()
	e.POST("/register", h.Register)

	rec := doJSON(e, http.MethodPost, "/register", `{"role_id":1,"password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "email is required")

	rec = doJSON(e, http.MethodPost, "/register", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := authServer(t)
	e := newEcho()
	e.POST("/register", h.Register)

	mock.ExpectQuery("FROM roles").WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM users WHERE email").WithArgs("ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rec := doJSON(e, http.MethodPost, "/register", `{"role_id":1,"email":"ann@example.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Duplicate email", decode(t, rec)["error"])
}
