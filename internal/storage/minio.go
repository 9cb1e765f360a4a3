package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOOptions configures the object-storage backed uploader.
type MinIOOptions struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	PublicBaseURL  string
	ThumbnailWidth int
	HTTPClient     *http.Client
}

// MinIOStore persists result artifacts into an S3-compatible bucket.
type MinIOStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
	thumbWidth int
	httpClient *http.Client
}

// NewMinIOStore connects to the object store and ensures the bucket exists.
func NewMinIOStore(ctx context.Context, opts MinIOOptions) (*MinIOStore, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	bucket := opts.Bucket
	if bucket == "" {
		bucket = "headshots"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket: %w", err)
		}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &MinIOStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(opts.PublicBaseURL, "/"),
		thumbWidth: opts.ThumbnailWidth,
		httpClient: httpClient,
	}, nil
}

// UploadFromURL fetches the provider-hosted result, stores the original under
// results/ and a downscaled thumbnail under thumbs/.
func (s *MinIOStore) UploadFromURL(ctx context.Context, sourceURL, baseName string) (*Artifact, error) {
	data, contentType, err := fetchSource(ctx, s.httpClient, sourceURL)
	if err != nil {
		return nil, err
	}

	resultKey := "results/" + baseName
	if _, err := s.client.PutObject(ctx, s.bucket, resultKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return nil, fmt.Errorf("storage: put result object: %w", err)
	}

	artifact := &Artifact{
		URL:   s.objectURL(resultKey),
		Bytes: int64(len(data)),
	}

	thumb, width, height, err := renderThumbnail(data, s.thumbWidth)
	if err != nil {
		// Unrenderable payloads still get persisted; only the thumbnail is skipped.
		artifact.Width, artifact.Height = imageDimensions(data)
		return artifact, nil
	}
	artifact.Width, artifact.Height = width, height

	thumbKey := "thumbs/" + baseName
	if _, err := s.client.PutObject(ctx, s.bucket, thumbKey, bytes.NewReader(thumb), int64(len(thumb)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
	}); err != nil {
		return nil, fmt.Errorf("storage: put thumbnail object: %w", err)
	}
	artifact.ThumbnailURL = s.objectURL(thumbKey)

	return artifact, nil
}

// PresignedURL generates a time-limited download URL for an object key.
func (s *MinIOStore) PresignedURL(ctx context.Context, objectKey string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign object: %w", err)
	}
	return url.String(), nil
}

func (s *MinIOStore) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key)
}

var _ Uploader = (*MinIOStore)(nil)
