// Package publish uploads inventory CSV files to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"coderefs/internal/config"
	"coderefs/internal/errors"
	"coderefs/internal/logging"
)

// ContentType is set on every uploaded inventory.
const ContentType = "text/csv"

// Uploader writes inventories to a bucket.
type Uploader struct {
	client   *minio.Client
	bucket   string
	region   string
	logger   *logging.Logger
	initOnce sync.Once
	initErr  error
}

// NewUploader creates an uploader. No request is made until the first upload.
func NewUploader(cfg config.ArtifactConfig, logger *logging.Logger) (*Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New(errors.ConfigInvalid, "artifact endpoint is required", nil)
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New(errors.ConfigInvalid, "artifact access key and secret key are required", nil)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New(errors.ConfigInvalid, "artifact bucket is required", nil)
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "init artifact client", err)
	}

	return &Uploader{
		client: client,
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// Bucket returns the target bucket name.
func (u *Uploader) Bucket() string {
	return u.bucket
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.initErr = u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// Upload stores the file at localPath under the docset prefix and returns
// its object key.
func (u *Uploader) Upload(ctx context.Context, docset, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if err := u.ensureBucket(ctx); err != nil {
		return "", errors.New(errors.InternalError, "ensure bucket", err).
			WithDetails(map[string]interface{}{"bucket": u.bucket})
	}

	key := ObjectKey(docset, filepath.Base(localPath))
	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: ContentType,
	})
	if err != nil {
		return "", errors.New(errors.InternalError, "upload inventory", err).
			WithDetails(map[string]interface{}{"bucket": u.bucket, "key": key})
	}

	u.logger.Info("Uploaded inventory", map[string]interface{}{
		logging.FieldDetail: u.bucket,
		logging.FieldItem:   key,
	})
	return key, nil
}

// List returns the object keys stored for a docset, sorted.
func (u *Uploader) List(ctx context.Context, docset string) ([]string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return nil, errors.New(errors.InternalError, "ensure bucket", err)
	}

	prefix := ObjectKey(docset, "")
	var keys []string
	for obj := range u.client.ListObjects(ctx, u.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if obj.Key != "" {
			keys = append(keys, obj.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// ObjectKey returns "{docset}/{name}". An empty name gives the docset prefix.
func ObjectKey(docset, name string) string {
	docset = strings.Trim(strings.TrimSpace(docset), "/")
	name = strings.TrimLeft(strings.TrimSpace(filepath.ToSlash(name)), "/")
	return docset + "/" + name
}
