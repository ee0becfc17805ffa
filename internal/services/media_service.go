package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/models"
)

const MaxImageBytes = 5 << 20

// ImageUploader stores image bytes and returns a public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, folder string) (string, error)
}

type MediaService struct {
	uploader ImageUploader
	logger   *slog.Logger
}

// NewMediaService accepts a nil uploader; uploads then fail with ErrUploadFailed.
func NewMediaService(uploader ImageUploader, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{uploader: uploader, logger: logger}
}

// UploadEventImage reads at most MaxImageBytes from r, checks that the content
// is an image and stores it in the events folder.
func (ms *MediaService) UploadEventImage(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return "", models.ValidationError("image is empty")
	}
	if len(data) > MaxImageBytes {
		return "", models.ValidationError("image exceeds %d MiB", MaxImageBytes>>20)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", models.ValidationError("file must be an image, got %s", mtype.String())
	}

	if ms.uploader == nil {
		ms.logger.Warn("image upload requested but no media store is configured")
		return "", fmt.Errorf("%w: media storage is not configured", models.ErrUploadFailed)
	}

	url, err := ms.uploader.UploadImage(ctx, data, helpers.EventsFolder)
	if err != nil {
		ms.logger.Error("image upload failed", "mime", mtype.String(), "bytes", len(data), "error", err)
		return "", fmt.Errorf("%w: %v", models.ErrUploadFailed, err)
	}
	return url, nil
}
