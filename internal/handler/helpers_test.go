package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-archive/internal/logger"
	"github.com/iliyamo/project-archive/internal/model"
	"github.com/iliyamo/project-archive/internal/queue"
	"github.com/iliyamo/project-archive/internal/utils"
)

const testSecret = "handler-test-secret"

var fixedTime = time.Date(2025, 2, 10, 12, 16, 12, 0, time.UTC)

func init() {
	logger.InitWithWriter("error", io.Discard)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, model.User{ID: userID, RoleID: 1, Email: "u@example.com"}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func doJSON(e *echo.Echo, method, target, body, auth string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// multipartBody encodes fields (repeated keys allowed) and an optional file.
func multipartBody(t *testing.T, fields [][2]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, w.WriteField(f[0], f[1]))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

type fakeFiles struct {
	saved   []string
	removed []string
}

func (f *fakeFiles) Save(fh *multipart.FileHeader) (model.FileRef, error) {
	path := "/uploads/stored-" + fh.Filename
	f.saved = append(f.saved, path)
	return model.FileRef{Name: fh.Filename, Path: path}, nil
}

func (f *fakeFiles) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakeEvents struct {
	events []queue.ProjectEvent
}

func (f *fakeEvents) Publish(_ context.Context, ev queue.ProjectEvent) error {
	f.events = append(f.events, ev)
	return nil
}

