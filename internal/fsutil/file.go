// Package fsutil routes model file access through afs so that paths may be
// plain filesystem paths or storage URLs (file://, s3://).
package fsutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	_ "github.com/viant/afsc/s3"
)

var FileSystem = afs.New()

// ReadFile returns the full content at url.
func ReadFile(ctx context.Context, url string) (data []byte, err error) {
	file, err := FileSystem.OpenURL(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return io.ReadAll(file)
}

// ErrNoParent is returned when a local destination's directory is missing.
var ErrNoParent = errors.New("parent directory does not exist")

// WriteFile stores data at url, replacing any existing object. Local paths
// must name an existing directory; object store URLs have no directories to
// check.
func WriteFile(ctx context.Context, url string, data []byte, mode os.FileMode) error {
	if err := checkParent(ctx, url); err != nil {
		return err
	}
	return FileSystem.Upload(ctx, url, mode, bytes.NewReader(data))
}

func checkParent(ctx context.Context, url string) error {
	local, ok := strings.CutPrefix(url, "file://")
	if !ok && strings.Contains(url, "://") {
		return nil
	}
	parent := filepath.Dir(local)
	exists, err := Exists(ctx, parent)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoParent, parent)
	}
	return nil
}

// Create opens a writer for url, creating missing parent directories; the
// object is committed on Close.
func Create(ctx context.Context, url string) (io.WriteCloser, error) {
	return FileSystem.NewWriter(ctx, url, 0o644)
}

// Exists reports whether url names an existing object.
func Exists(ctx context.Context, url string) (bool, error) {
	return FileSystem.Exists(ctx, url)
}

// Size returns the size in bytes of the object at url.
func Size(ctx context.Context, url string) (int64, error) {
	object, err := FileSystem.Object(ctx, url)
	if err != nil {
		return 0, err
	}
	return object.Size(), nil
}
