package utils

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the policy's size ceiling.
var ErrTooLarge = errors.New("file exceeds upload size limit")

// UploadPolicy decides where uploaded bytes live: <Root>/<UploadsDir>/<user id>/<stored name>.
type UploadPolicy struct {
	Root       string // stored paths are relative to Root
	UploadsDir string // relative to Root
	MaxBytes   int64
}

// StoredUpload describes bytes placed on disk by Save.
type StoredUpload struct {
	StoredName string
	RelPath    string // slash separated, relative to the policy root
	AbsPath    string
	Size       int64
}

// UserDir creates the user's directory if absent and returns its path relative to Root.
// An existing directory is not an error, so concurrent first uploads are safe.
func (p UploadPolicy) UserDir(userID uint) (string, error) {
	rel := filepath.Join(p.UploadsDir, strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(filepath.Join(p.Root, rel), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	return rel, nil
}

// StoredName derives a collision-free on-disk name, keeping the original extension.
func (p UploadPolicy) StoredName(original string) string {
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString(), filepath.Ext(filepath.Base(original)))
}

// Save provisions the user's directory and copies fh into it. Partial files are removed on failure.
func (p UploadPolicy) Save(fh *multipart.FileHeader, userID uint) (*StoredUpload, error) {
	if p.MaxBytes > 0 && fh.Size > p.MaxBytes {
		return nil, ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dir, err := p.UserDir(userID)
	if err != nil {
		return nil, err
	}

	name := p.StoredName(fh.Filename)
	rel := filepath.Join(dir, name)
	abs := filepath.Join(p.Root, rel)

	// O_EXCL: never overwrite an existing stored file
	out, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	var r io.Reader = src
	if p.MaxBytes > 0 {
		r = &io.LimitedReader{R: src, N: p.MaxBytes + 1}
	}
	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(abs)
		return nil, fmt.Errorf("write file: %w", err)
	}
	if p.MaxBytes > 0 && written > p.MaxBytes {
		_ = os.Remove(abs)
		return nil, ErrTooLarge
	}

	return &StoredUpload{
		StoredName: name,
		RelPath:    filepath.ToSlash(rel),
		AbsPath:    abs,
		Size:       written,
	}, nil
}

// Resolve turns a stored relative path into an absolute filesystem path.
func (p UploadPolicy) Resolve(relPath string) (string, error) {
	return filepath.Abs(filepath.Join(p.Root, filepath.FromSlash(relPath)))
}

// Discard removes stored bytes; a file that is already gone is not an error.
func (p UploadPolicy) Discard(relPath string) error {
	abs, err := p.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
