package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/logger"
	"github.com/iliyamo/project-archive/internal/model"
	"github.com/iliyamo/project-archive/internal/queue"
	"github.com/iliyamo/project-archive/internal/repository"
)

// FileStore keeps uploaded project files.
type FileStore interface {
	Save(fh *multipart.FileHeader) (model.FileRef, error)
	Remove(publicPath string) error
}

// EventPublisher announces committed project writes.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ProjectEvent) error
}

// ProjectHandler serves projects: multipart create/update, listings, detail
// and soft delete.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
	Files    FileStore
	Events   EventPublisher
}

func NewProjectHandler(p *repository.ProjectRepo, files FileStore, events EventPublisher) *ProjectHandler {
	if p == nil || files == nil {
		panic("nil dependency passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: p, Files: files, Events: events}
}

// projectForm reads the multipart fields of a create or update request.  The
// membership list is a JSON array in "members"; the older field name
// "role_group" is accepted too.  The returned file header is nil when no
// file was sent.
func projectForm(c echo.Context) (repository.ProjectInput, *multipart.FileHeader, error) {
	var in repository.ProjectInput
	form, err := c.FormParams()
	if err != nil {
		return in, nil, &repository.ValidationError{Msg: "invalid form data"}
	}

	if raw := strings.TrimSpace(form.Get("type_id")); raw != "" {
		if in.TypeID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return in, nil, &repository.ValidationError{Msg: "type_id must be an integer"}
		}
	}
	in.NameTH = form.Get("project_name_th")
	in.NameEN = form.Get("project_name_en")
	in.AbstractTH = optional(form.Get("abstract_th"))
	in.AbstractEN = optional(form.Get("abstract_en"))

	if in.Keywords, err = parseKeywords(form["keywords"]); err != nil {
		return in, nil, err
	}
	if raw := strings.TrimSpace(form.Get("date")); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return in, nil, &repository.ValidationError{Msg: "date must be formatted as YYYY-MM-DD"}
		}
		in.Date = &d
	}

	raw := form.Get("members")
	if raw == "" {
		raw = form.Get("role_group")
	}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &in.Members); err != nil {
			return in, nil, &repository.ValidationError{Msg: "role_group is not a valid JSON string"}
		}
	}

	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, &repository.ValidationError{Msg: "invalid file upload"}
	}
	return in, fh, nil
}

// parseKeywords accepts either one field holding a JSON array of strings or
// the field repeated once per keyword.
func parseKeywords(vals []string) ([]string, error) {
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		if strings.TrimSpace(vals[0]) == "" {
			return nil, nil
		}
		var out []string
		if err := json.Unmarshal([]byte(vals[0]), &out); err != nil {
			return nil, &repository.ValidationError{Msg: "keywords must be a JSON array of strings"}
		}
		return out, nil
	}
	return vals, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// store saves the upload, if any, and points in.File at it.
func (h *ProjectHandler) store(in *repository.ProjectInput, fh *multipart.FileHeader) error {
	if fh == nil {
		return nil
	}
	ref, err := h.Files.Save(fh)
	if err != nil {
		return err
	}
	in.File = &ref
	return nil
}

// discard removes a stored file that no row refers to.
func (h *ProjectHandler) discard(path string) {
	if path == "" {
		return
	}
	if err := h.Files.Remove(path); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("remove upload failed")
	}
}

func (h *ProjectHandler) publish(c echo.Context, typ string, projectID int64) {
	if h.Events == nil {
		return
	}
	userID, _ := getUserID(c)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()
	ev := queue.ProjectEvent{Type: typ, ProjectID: projectID, UserID: userID, At: time.Now().UTC()}
	if err := h.Events.Publish(ctx, ev); err != nil {
		logger.Warn().Err(err).Str("event", typ).Int64("project_id", projectID).Msg("publish event failed")
	}
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(c echo.Context) error {
	in, fh, err := projectForm(c)
	if err != nil {
		return writeError(c, err)
	}
	if fh == nil {
		return writeError(c, repository.ErrNoFileUploaded)
	}
	if err := h.store(&in, fh); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	id, err := h.Projects.Create(ctx, in)
	if err != nil {
		h.discard(in.File.Path)
		return writeError(c, err)
	}
	h.publish(c, queue.ProjectCreated, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "Project added successfully", "project_id": id})
}

// Update handles PUT /projects/:id.  Without a new file the stored file is
// kept; a replaced file is removed after the commit.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	in, fh, err := projectForm(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.store(&in, fh); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	replaced, err := h.Projects.Update(ctx, id, in)
	if err != nil {
		if in.File != nil {
			h.discard(in.File.Path)
		}
		return writeError(c, err)
	}
	h.discard(replaced)
	h.publish(c, queue.ProjectUpdated, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "Project updated successfully", "project_id": id})
}

// Delete handles DELETE /projects/:id (soft delete).  The file stays so the
// project can be restored.
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Projects.SoftDelete(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	h.publish(c, queue.ProjectDeleted, id)
	return c.JSON(http.StatusOK, echo.Map{"message": "Project soft-deleted successfully", "project": p})
}

func projectFilter(c echo.Context) (repository.ProjectFilter, error) {
	var f repository.ProjectFilter
	typeID, err := queryInt64(c, "type_id")
	if err != nil {
		return f, err
	}
	year, err := queryInt64(c, "year")
	if err != nil {
		return f, err
	}
	page, err := pageParams(c)
	if err != nil {
		return f, err
	}
	f = repository.ProjectFilter{
		TypeID:         typeID,
		Search:         strings.TrimSpace(c.QueryParam("search")),
		IncludeDeleted: queryBool(c, "include_deleted"),
		Page:           page,
	}
	if year != nil {
		y := int(*year)
		f.Year = &y
	}
	return f, nil
}

// List handles GET /projects?type_id&search&year&limit&offset.
func (h *ProjectHandler) List(c echo.Context) error {
	f, err := projectFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	projects, total, err := h.Projects.List(ctx, f)
	if err != nil {
		return writeError(c, err)
	}
	return list(c, projects, &total)
}

// Mine handles GET /projects/mine for the authenticated user.
func (h *ProjectHandler) Mine(c echo.Context) error {
	userID, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "No token provided"))
	}
	f, err := projectFilter(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	projects, total, err := h.Projects.ListMine(ctx, userID, f)
	if err != nil {
		return writeError(c, err)
	}
	return list(c, projects, &total)
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	v, err := h.Projects.Get(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": v})
}
