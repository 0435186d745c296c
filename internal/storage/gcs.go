package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client  *gcs.Client
	bucket  string
	baseURL string
}

// NewGCSStore connects to Google Cloud Storage. A non-empty emulatorHost
// points the client at a local emulator without authentication.
func NewGCSStore(ctx context.Context, bucket, emulatorHost string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	var opts []option.ClientOption
	baseURL := "https://storage.googleapis.com"
	if emulatorHost != "" {
		endpoint := strings.TrimRight(emulatorHost, "/")
		opts = append(opts,
			option.WithoutAuthentication(),
			option.WithEndpoint(endpoint+"/storage/v1/"),
		)
		baseURL = endpoint
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket, baseURL: baseURL}, nil
}

func (s *GCSStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

func (s *GCSStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	signed, err := s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return signed, nil
}

func (s *GCSStore) PublicURL(key string) string {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return s.baseURL + "/" + s.bucket + "/" + key
	}
	u.Path = "/" + s.bucket + "/" + key
	return u.String()
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
