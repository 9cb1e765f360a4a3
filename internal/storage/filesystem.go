package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore persists artifacts onto the local filesystem. It is intended for
// development and test environments where an object storage service is not
// available.
type FileStore struct {
	basePath   string
	baseURL    string
	thumbWidth int
	httpClient *http.Client
}

// NewFileStore initializes a FileStore rooted at basePath. Persisted files are
// addressed under baseURL.
func NewFileStore(basePath, baseURL string, thumbWidth int) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{
		basePath:   basePath,
		baseURL:    strings.TrimRight(baseURL, "/"),
		thumbWidth: thumbWidth,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// UploadFromURL fetches the source and writes the original plus a thumbnail
// under the store root.
func (s *FileStore) UploadFromURL(ctx context.Context, sourceURL, baseName string) (*Artifact, error) {
	if s == nil {
		return nil, errors.New("storage: no store configured")
	}
	data, _, err := fetchSource(ctx, s.httpClient, sourceURL)
	if err != nil {
		return nil, err
	}

	resultKey, err := s.write("results/"+baseName, data)
	if err != nil {
		return nil, err
	}
	artifact := &Artifact{
		URL:   s.fileURL(resultKey),
		Bytes: int64(len(data)),
	}

	thumb, width, height, err := renderThumbnail(data, s.thumbWidth)
	if err != nil {
		artifact.Width, artifact.Height = imageDimensions(data)
		return artifact, nil
	}
	artifact.Width, artifact.Height = width, height

	thumbKey, err := s.write("thumbs/"+baseName, thumb)
	if err != nil {
		return nil, err
	}
	artifact.ThumbnailURL = s.fileURL(thumbKey)

	return artifact, nil
}

// write persists bytes at the given relative key and returns the
// canonicalized storage key. Keys are cleaned to prevent directory traversal.
func (s *FileStore) write(key string, data []byte) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return cleanKey, nil
}

func (s *FileStore) fileURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}

var _ Uploader = (*FileStore)(nil)
