package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upload(t *testing.T, name, body string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocal_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "uploads/")

	ref, err := l.Save(upload(t, "Report.PDF", "pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Report.PDF", ref.Name)
	assert.True(t, strings.HasPrefix(ref.Path, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref.Path, ".pdf"))

	stored := filepath.Join(dir, strings.TrimPrefix(ref.Path, "/uploads/"))
	b, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(b))

	require.NoError(t, l.Remove(ref.Path))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// second removal is a no-op
	assert.NoError(t, l.Remove(ref.Path))
}

func TestLocal_SaveNamesAreUnique(t *testing.T) {
	l := NewLocal(t.TempDir(), "/uploads")
	a, err := l.Save(upload(t, "a.txt", "1"))
	require.NoError(t, err)
	b, err := l.Save(upload(t, "a.txt", "2"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestLocal_RemoveIgnoresForeignPaths(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	l := NewLocal(filepath.Join(dir, "uploads"), "/uploads")
	assert.NoError(t, l.Remove("/elsewhere/keep.txt"))
	assert.NoError(t, l.Remove("/uploads/../keep.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)
}
