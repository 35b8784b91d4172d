package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"facility-report/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxImageSize = 10 << 20 // 10MB

// Storage writes report images to local disk and hands back the stored
// path that gets persisted on the report document.
type Storage interface {
	SaveImage(file *multipart.FileHeader) (string, error)
	// RemoveImage is best-effort: failures are logged, never returned.
	RemoveImage(path string)
	Dir() string
}

type StorageImpl struct {
	dir    string
	logger *zap.Logger
}

func NewStorage(cfg *config.Config, logger *zap.Logger) Storage {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		os.MkdirAll(cfg.FSPath, 0755)
	}
	return &StorageImpl{
		dir:    cfg.FSPath,
		logger: logger,
	}
}

func (s *StorageImpl) Dir() string {
	return s.dir
}

func (s *StorageImpl) SaveImage(file *multipart.FileHeader) (string, error) {
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image too large (max %dMB)", maxImageSize>>20)
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported file type: %s", contentType)
	}

	originalName := filepath.Base(file.Filename)
	uniqueName := uuid.NewString() + filepath.Ext(originalName)
	dstPath := filepath.Join(s.dir, uniqueName)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("write %s: %w", dstPath, err)
	}

	return dstPath, nil
}

func (s *StorageImpl) RemoveImage(path string) {
	if path == "" {
		return
	}
	// Never remove anything outside the upload directory
	cleaned := filepath.Clean(path)
	if !strings.HasPrefix(cleaned, filepath.Clean(s.dir)) {
		s.logger.Warn("refusing to remove path outside upload dir", zap.String("path", path))
		return
	}
	if err := os.Remove(cleaned); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove image", zap.String("path", cleaned), zap.Error(err))
	}
}
