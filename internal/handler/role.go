package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/repository"
)

type RoleHandler struct {
	Roles *repository.RoleRepo
}

func NewRoleHandler(r *repository.RoleRepo) *RoleHandler {
	return &RoleHandler{Roles: r}
}

type createRoleReq struct {
	RoleName string `json:"role_name"`
}

func (h *RoleHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	roles, err := h.Roles.List(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return list(c, roles, nil)
}

// Create handles POST /roles.  A blank name is rejected by the repository.
func (h *RoleHandler) Create(c echo.Context) error {
	var req createRoleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	role, err := h.Roles.Create(ctx, req.RoleName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Role added successfully", "role": role})
}
