package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/repository"
)

// UserHandler serves user listing and maintenance.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: u}
}

type updateUserReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// List handles GET /users?search&role_id&include_deleted&limit&offset.
func (h *UserHandler) List(c echo.Context) error {
	roleID, err := queryInt64(c, "role_id")
	if err != nil {
		return writeError(c, err)
	}
	page, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	users, total, err := h.Users.List(ctx, repository.UserFilter{
		RoleID:         roleID,
		Search:         c.QueryParam("search"),
		IncludeDeleted: queryBool(c, "include_deleted"),
		Page:           page,
	})
	if err != nil {
		return writeError(c, err)
	}
	return list(c, users, &total)
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Update(ctx, id, req.FirstName, req.LastName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully", "user": u})
}

// Delete handles DELETE /users/:id (soft delete).
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.SoftDelete(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User soft-deleted successfully", "user": u})
}

// Rollback handles PATCH /users/:id/rollback.
func (h *UserHandler) Rollback(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Users.Restore(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User restored successfully", "user": u})
}
