package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Artifact describes a persisted result image and its derived thumbnail.
type Artifact struct {
	URL          string
	ThumbnailURL string
	Width        int
	Height       int
	Bytes        int64
}

// Uploader copies a provider-hosted result into durable storage and returns
// the persisted locations. The reconciler depends on this interface so it can
// be tested without live object storage.
type Uploader interface {
	UploadFromURL(ctx context.Context, sourceURL, baseName string) (*Artifact, error)
}

const maxArtifactBytes = 32 << 20

func fetchSource(ctx context.Context, client *http.Client, sourceURL string) ([]byte, string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return nil, "", errors.New("storage: source url required")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("storage: fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("storage: fetch source: http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("storage: read source: %w", err)
	}
	if len(data) > maxArtifactBytes {
		return nil, "", errors.New("storage: source exceeds size limit")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// renderThumbnail downscales the image to at most maxWidth pixels wide and
// re-encodes it as JPEG. A decode failure is reported, not fatal: callers may
// persist the original without a thumbnail.
func renderThumbnail(data []byte, maxWidth int) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("storage: decode image: %w", err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	thumb := img
	if maxWidth > 0 && width > maxWidth {
		thumb = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, width, height, fmt.Errorf("storage: encode thumbnail: %w", err)
	}
	return buf.Bytes(), width, height, nil
}

func imageDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
