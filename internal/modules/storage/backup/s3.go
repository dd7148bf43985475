package backup

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/quillpost/core/internal/config"
)

// S3Uploader puts archives into an S3-compatible bucket.
type S3Uploader struct {
	client   *s3.Client
	bucket   string
	endpoint string
	region   string
	prefix   string
	// pathStyle mirrors the client option for building object URLs.
	pathStyle bool
}

// NewS3Uploader returns (nil, nil) when no bucket is configured.
func NewS3Uploader(cfg config.S3Config) (*S3Uploader, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("incomplete s3 config: region, access_key_id and secret_access_key are required")
	}

	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	// Custom endpoints (MinIO, Ceph, R2) almost always need path-style.
	pathStyle := cfg.PathStyle || endpoint != ""

	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		UsePathStyle: pathStyle,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Uploader{
		client:    s3.New(opts),
		bucket:    cfg.Bucket,
		endpoint:  endpoint,
		region:    cfg.Region,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		pathStyle: pathStyle,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	key = normalizeObjectKey(key)
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", u.bucket, key, err)
	}
	return u.objectURL(key), nil
}

func (u *S3Uploader) objectURL(key string) string {
	endpoint := u.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", u.region)
	}
	if u.pathStyle {
		return endpoint + "/" + u.bucket + "/" + key
	}
	scheme, host, _ := strings.Cut(endpoint, "://")
	return scheme + "://" + u.bucket + "." + host + "/" + key
}
