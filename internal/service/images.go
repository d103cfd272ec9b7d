package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const DefaultPresignTTL = 15 * time.Minute

var (
	ErrImagesDisabled = errors.New("image storage is not configured")
	ErrNotAnImage     = errors.New("only jpeg, png and webp images are accepted")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStore keeps crop pictures in a MinIO bucket.
type ImageStore struct {
	client *minio.Client
	bucket string
}

func NewImageStore(client *minio.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

func (s *ImageStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Upload stores the image under farmers/<farmerID>/ and returns its public URL.
func (s *ImageStore) Upload(ctx context.Context, farmerID string, r io.Reader, size int64, contentType string) (string, error) {
	if !s.Enabled() {
		return "", ErrImagesDisabled
	}
	ext, ok := imageExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", ErrNotAnImage
	}

	object := path.Join("farmers", farmerID, uuid.NewString()+ext)
	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", object, err)
	}
	return s.PublicURL(object), nil
}

func (s *ImageStore) PublicURL(object string) string {
	u := *s.client.EndpointURL()
	u.Path = "/" + path.Join(s.bucket, object)
	return u.String()
}

// ObjectKey turns a URL produced by Upload back into the object name.
// Values that are already bare object names are returned unchanged.
func (s *ImageStore) ObjectKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(raw, "/")
	}
	return strings.TrimPrefix(u.Path, "/"+s.bucket+"/")
}

// PresignedURL returns a time-limited GET link for a stored image.
func (s *ImageStore) PresignedURL(ctx context.Context, image string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrImagesDisabled
	}
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, s.ObjectKey(image), ttl, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
