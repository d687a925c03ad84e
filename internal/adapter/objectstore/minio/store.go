// Package minio stores thumbnails in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lexand-dev/vid-skool/internal/core"
)

const (
	keyPrefix        = "thumbnails/"
	maxRemoteObject  = 16 << 20
	defaultFetchWait = 20 * time.Second
)

// Options configures the bucket connection.
type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// ObjectAPI is the subset of *minio.Client used by the store.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts miniogo.PutObjectOptions) (miniogo.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts miniogo.RemoveObjectOptions) error
}

// HTTPDoer fetches remote images for UploadFromURL.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Store implements core.ObjectStore.
type Store struct {
	api     ObjectAPI
	fetch   HTTPDoer
	bucket  string
	baseURL string
	newKey  func(ext string) string
}

// New connects to the bucket, creating it when missing.
func New(ctx context.Context, opts Options) (*Store, error) {
	client, err := miniogo.New(opts.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	baseURL := opts.PublicBaseURL
	if strings.TrimSpace(baseURL) == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + opts.Endpoint
	}
	return NewStore(client, &http.Client{Timeout: defaultFetchWait}, opts.Bucket, baseURL), nil
}

// NewStore wires a store on an existing object API.
func NewStore(api ObjectAPI, fetch HTTPDoer, bucket, publicBaseURL string) *Store {
	return &Store{
		api:     api,
		fetch:   fetch,
		bucket:  bucket,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		newKey: func(ext string) string {
			return keyPrefix + uuid.NewString() + "." + ext
		},
	}
}

var _ core.ObjectStore = (*Store)(nil)

// Upload stores the body under a fresh key.
func (s *Store) Upload(ctx context.Context, obj core.ObjectUpload) (*core.StoredObject, error) {
	key := s.newKey(extensionFor(obj.ContentType))
	size := obj.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.api.PutObject(ctx, s.bucket, key, obj.Body, size, miniogo.PutObjectOptions{ContentType: obj.ContentType})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}
	return &core.StoredObject{Key: key, URL: s.URL(key)}, nil
}

// UploadFromURL downloads sourceURL and stores the bytes under a fresh key.
func (s *Store) UploadFromURL(ctx context.Context, sourceURL string) (*core.StoredObject, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := s.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("fetch %s: status %d", sourceURL, resp.StatusCode)
	}
	if resp.ContentLength > maxRemoteObject {
		return nil, fmt.Errorf("fetch %s: object too large (%d bytes)", sourceURL, resp.ContentLength)
	}

	body, size := io.Reader(resp.Body), resp.ContentLength
	if size < 0 {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteObject+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sourceURL, err)
		}
		if len(data) > maxRemoteObject {
			return nil, fmt.Errorf("fetch %s: object exceeds %d bytes", sourceURL, maxRemoteObject)
		}
		body, size = bytes.NewReader(data), int64(len(data))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return s.Upload(ctx, core.ObjectUpload{
		Body:        body,
		Size:        size,
		ContentType: contentType,
	})
}

// Delete removes the object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of a key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + s.bucket + "/" + key
}

func extensionFor(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}
