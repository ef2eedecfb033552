package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/repository"
)

// ProjectTypeHandler serves the project-type catalogue.
type ProjectTypeHandler struct {
	Types *repository.ProjectTypeRepo
}

func NewProjectTypeHandler(t *repository.ProjectTypeRepo) *ProjectTypeHandler {
	return &ProjectTypeHandler{Types: t}
}

type typeReq struct {
	TypeName string `json:"type_name"`
}

func (h *ProjectTypeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	types, err := h.Types.List(ctx, queryBool(c, "include_deleted"))
	if err != nil {
		return writeError(c, err)
	}
	return list(c, types, nil)
}

// Create files the new type under the authenticated user.
func (h *ProjectTypeHandler) Create(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "Missing bearer token"))
	}
	var req typeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Types.Create(ctx, userID, req.TypeName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Type added successfully", "data": t})
}

func (h *ProjectTypeHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var req typeReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Types.Update(ctx, id, req.TypeName)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Type project updated successfully", "update_type_project": t})
}

func (h *ProjectTypeHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Types.SoftDelete(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Type project soft-deleted successfully", "deleted_type_project": t})
}
