package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-archive/internal/logger"
	"github.com/iliyamo/project-archive/internal/middleware"
	"github.com/iliyamo/project-archive/internal/query"
	"github.com/iliyamo/project-archive/internal/repository"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 5 * time.Second

// listResponse is the envelope of every list endpoint.  TotalCount is only
// present for paginated lists.
type listResponse struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	TotalCount *int64 `json:"totalCount,omitempty"`
}

func list(c echo.Context, data any, total *int64) error {
	return c.JSON(http.StatusOK, listResponse{Success: true, Data: data, TotalCount: total})
}

func errorBody(title, msg string) echo.Map {
	return echo.Map{"error": title, "message": msg}
}

// writeError maps repository errors onto HTTP responses.  Store failures are
// logged with their cause; the client only gets a retry hint.
func writeError(c echo.Context, err error) error {
	var (
		ve *repository.ValidationError
		se *repository.StoreError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, errorBody("Invalid data", ve.Msg))
	case errors.Is(err, repository.ErrInvalidReference):
		return c.JSON(http.StatusBadRequest, errorBody("Invalid reference", err.Error()))
	case errors.Is(err, repository.ErrNoFieldsProvided):
		return c.JSON(http.StatusBadRequest, errorBody("No fields provided", "Nothing to update"))
	case errors.Is(err, repository.ErrNotDeleted):
		return c.JSON(http.StatusBadRequest, errorBody("Not deleted", "The record is not deleted"))
	case errors.Is(err, repository.ErrDuplicateEmail):
		return c.JSON(http.StatusUnauthorized, errorBody("Duplicate email", "Email already exists"))
	case errors.Is(err, repository.ErrDuplicateTypeName):
		return c.JSON(http.StatusUnauthorized, errorBody("Duplicate typename", "TypeName already exists"))
	case errors.Is(err, repository.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "Invalid email or password"))
	case errors.Is(err, repository.ErrAccountDeleted):
		return c.JSON(http.StatusUnauthorized, errorBody("Unauthorized", "Account has been deleted"))
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody("Not found", "No matching record"))
	}
	ev := logger.Error().Err(err).Str("route", c.Path())
	if errors.As(err, &se) {
		ev = ev.Str("op", se.Op)
	}
	ev.Msg("request failed")
	return c.JSON(http.StatusInternalServerError, errorBody("Internal server error", "Please try again later"))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody("Invalid data", msg))
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &repository.ValidationError{Msg: "id must be a positive integer"}
	}
	return id, nil
}

// queryInt64 parses an optional integer query parameter; absent or empty
// yields nil.
func queryInt64(c echo.Context, name string) (*int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &repository.ValidationError{Msg: name + " must be an integer"}
	}
	return &n, nil
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}

// pageParams reads limit and offset; missing values take the defaults.
func pageParams(c echo.Context) (query.Page, error) {
	limit, err := queryInt64(c, "limit")
	if err != nil {
		return query.Page{}, err
	}
	offset, err := queryInt64(c, "offset")
	if err != nil {
		return query.Page{}, err
	}
	p := query.NewPage(0, 0)
	if limit != nil {
		p = query.NewPage(int(*limit), p.Offset)
	}
	if offset != nil {
		p = query.NewPage(p.Limit, int(*offset))
	}
	return p, nil
}

// getUserID returns the id JWTAuth stored in the context.
func getUserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.UserIDKey).(int64)
	return id, ok && id > 0
}

// bindAndValidate decodes the request body into req and runs the echo
// validator over it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &repository.ValidationError{Msg: "invalid request body"}
	}
	return c.Validate(req)
}
