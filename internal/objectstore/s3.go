// Package objectstore uploads compose images straight into an S3-compatible
// bucket (AWS S3 or MinIO) instead of the backend's /upload/image route.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/five82/flock/internal/api"
	"github.com/five82/flock/internal/config"
)

const keyPrefix = "posts/"

// S3Uploader puts images into a bucket and returns their public URL.
type S3Uploader struct {
	s3Client  *s3.S3
	bucket    string
	region    string
	endpoint  string
	useSSL    bool
	publicURL string
	newKey    func(ext string) string
}

// NewS3Uploader builds an uploader from the [upload] config table.
func NewS3Uploader(cfg config.Upload) (*S3Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 uploader: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsConfig := &aws.Config{Region: aws.String(region)}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	// MinIO and other self-hosted endpoints need path-style addressing.
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		awsConfig.Endpoint = aws.String(endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if !cfg.UseSSL {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Uploader{
		s3Client:  s3.New(sess),
		bucket:    cfg.Bucket,
		region:    region,
		endpoint:  endpoint,
		useSSL:    cfg.UseSSL,
		publicURL: strings.TrimSuffix(strings.TrimSpace(cfg.PublicURL), "/"),
		newKey: func(ext string) string {
			return keyPrefix + uuid.NewString() + ext
		},
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet. Useful against
// a fresh MinIO.
func (u *S3Uploader) EnsureBucket(ctx context.Context) error {
	_, err := u.s3Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err == nil {
		return nil
	}
	if _, err := u.s3Client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(u.bucket)}); err != nil {
		return fmt.Errorf("create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// UploadImage reads a local image reference and stores it under a fresh
// posts/<uuid><ext> key.
func (u *S3Uploader) UploadImage(ctx context.Context, ref string) (string, error) {
	data, name, err := api.ReadImage(ref)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".jpg"
	}
	key := u.newKey(ext)

	_, err = u.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(api.ImageContentType(name)),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	if u.publicURL != "" {
		return u.publicURL + "/" + key
	}
	if u.endpoint != "" && !strings.Contains(u.endpoint, "amazonaws.com") {
		host := u.endpoint
		scheme := "http"
		if u.useSSL {
			scheme = "https"
		}
		if i := strings.Index(host, "://"); i >= 0 {
			scheme = host[:i]
			host = host[i+3:]
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, strings.TrimSuffix(host, "/"), u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
