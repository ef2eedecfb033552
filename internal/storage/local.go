// Package storage keeps uploaded project files on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/project-archive/internal/model"
)

// Local stores files under Dir and refers to them by URLPrefix + "/" + name.
// Stored names are random so client file names never collide or escape Dir.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) *Local {
	return &Local{Dir: dir, URLPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

// Save copies the upload to disk as <uuid><ext> and returns its reference.
// The reference keeps the client's original file name for display.
func (l *Local) Save(fh *multipart.FileHeader) (model.FileRef, error) {
	if fh == nil {
		return model.FileRef{}, errors.New("storage: nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return model.FileRef{}, fmt.Errorf("storage: open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return model.FileRef{}, fmt.Errorf("storage: mkdir %s: %w", l.Dir, err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(l.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return model.FileRef{}, fmt.Errorf("storage: create: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return model.FileRef{}, fmt.Errorf("storage: write: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return model.FileRef{}, fmt.Errorf("storage: close: %w", err)
	}
	return model.FileRef{Name: filepath.Base(fh.Filename), Path: path.Join(l.URLPrefix, name)}, nil
}

// Remove deletes a file previously returned by Save.  Paths outside the
// prefix are ignored and a missing file is not an error.
func (l *Local) Remove(publicPath string) error {
	name := strings.TrimPrefix(publicPath, l.URLPrefix+"/")
	if name == publicPath || name == "" || strings.ContainsAny(name, `/\`) {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: remove: %w", err)
	}
	return nil
}
