package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is the per-file limit when none is configured (2 MiB)
const DefaultMaxUploadBytes int64 = 2 << 20

var allowedUploadExts = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".webp": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true,
}

const uploadTypeMessage = "Only images (jpg, jpeg, png, webp) or videos (mp4, mov, avi, mkv) are allowed"

var (
	errUploadType = errors.New("unsupported upload type")
	errUploadSize = errors.New("file too large")
)

// UploadPolicy decides where incoming files are staged and how large they may be
type UploadPolicy struct {
	TempDir  string
	MaxBytes int64
}

func (p UploadPolicy) maxBytes() int64 {
	if p.MaxBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return p.MaxBytes
}

func (p UploadPolicy) tempDir() string {
	if p.TempDir == "" {
		return os.TempDir()
	}
	return p.TempDir
}

// check enforces the extension, MIME family and size rules
func (p UploadPolicy) check(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedUploadExts[ext] {
		return errUploadType
	}
	mime := strings.ToLower(fh.Header.Get("Content-Type"))
	if !strings.HasPrefix(mime, "image/") && !strings.HasPrefix(mime, "video/") {
		return errUploadType
	}
	if fh.Size > p.maxBytes() {
		return errUploadSize
	}
	return nil
}

// stage saves an accepted file under a unique name and returns its path
func (p UploadPolicy) stage(c fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	if err := p.check(fh); err != nil {
		return "", err
	}
	dir := p.tempDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, path); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return path, nil
}

// stageOptional stages the single file under field; a missing file yields an empty path
func (p UploadPolicy) stageOptional(c fiber.Ctx, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return "", nil
	}
	return p.stage(c, fh)
}

// stageAll stages every file under field; staged files are removed again if one fails
func (p UploadPolicy) stageAll(c fiber.Ctx, field string) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil, nil
	}
	var paths []string
	for _, fh := range form.File[field] {
		path, err := p.stage(c, fh)
		if err != nil {
			discard(paths...)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// discard removes staged files the flows never received
func discard(paths ...string) {
	for _, path := range paths {
		if path != "" {
			_ = os.Remove(path)
		}
	}
}

// uploadError answers a rejected upload
func (h *baseHandler) uploadError(c fiber.Ctx, err error, limit int64) error {
	switch {
	case errors.Is(err, errUploadType):
		return h.ErrorResponse(c, fiber.StatusBadRequest, uploadTypeMessage, "INVALID_FILE_TYPE", nil)
	case errors.Is(err, errUploadSize):
		return h.ErrorResponse(c, fiber.StatusBadRequest, fmt.Sprintf("File exceeds the %d byte limit", limit), "FILE_TOO_LARGE", nil)
	default:
		return h.FlowError(c, err, "File", "Upload")
	}
}
