package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/config"
	"github.com/iliyamo/project-archive/internal/logger"
	"github.com/iliyamo/project-archive/internal/repository"
	"github.com/iliyamo/project-archive/internal/utils"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type registerReq struct {
	RoleID    int64   `json:"role_id" validate:"required,gt=0"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account.  It does not log the user in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Register(ctx, repository.RegisterInput{
		RoleID:    req.RoleID,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, h.Cfg.BcryptCost)
	if err != nil {
		return writeError(c, err)
	}
	logger.Info().Int64("user_id", u.ID).Msg("user registered")
	return c.JSON(http.StatusOK, echo.Map{"message": "User added successfully", "user": u})
}

// Login verifies credentials and returns a signed access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, u, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":    "Login successful",
		"token":      tok.Token,
		"expires_at": tok.Exp,
	})
}
