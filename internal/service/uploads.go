package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bbn-nutrition/storefront/internal/logging"
	"github.com/bbn-nutrition/storefront/internal/transport"
)

const (
	UploadURLPrefix = "/uploads/"
	MaxUploadSize   = 5 << 20
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// UploadService stores product images on local disk under Dir.
type UploadService struct {
	Dir string
}

func (s *UploadService) SaveImage(ctx context.Context, original string, size int64, r io.Reader) (*transport.UploadResponse, error) {
	l := logging.FromContext(ctx).With("svc", "uploads.save")

	ext := strings.ToLower(filepath.Ext(original))
	if !allowedImageExt[ext] {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrValidation, ext)
	}
	if size > MaxUploadSize {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrValidation, MaxUploadSize)
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, err
	}
	filename := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.Dir, filename))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	n, err := io.Copy(dst, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		l.Error("upload_error", "filename", filename, "error", err)
		return nil, err
	}
	if n > MaxUploadSize {
		_ = os.Remove(dst.Name())
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrValidation, MaxUploadSize)
	}

	l.Info("image_uploaded", "filename", filename, "bytes", n)
	return &transport.UploadResponse{URL: UploadURLPrefix + filename, Filename: filename, Size: n}, nil
}
