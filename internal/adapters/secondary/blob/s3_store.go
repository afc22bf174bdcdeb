// Package blob stores uploaded catalog images in an S3-compatible bucket.
package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// Config holds explicit construction parameters. Credentials come from the
// default AWS chain unless Options override them.
type Config struct {
	Bucket   string
	Region   string
	Endpoint string // optional; set for MinIO or other S3-compatible services
	// PathStyle addresses objects as endpoint/bucket/key.
	PathStyle bool
	// PublicBaseURL, when set, prefixes object keys in returned URLs.
	PublicBaseURL string
}

// S3Store implements ports.BlobStore on a single bucket.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

var _ ports.BlobStore = (*S3Store)(nil)

// NewS3Store loads the AWS configuration and builds the client. Extra load
// options are applied after the region.
func NewS3Store(ctx context.Context, cfg Config, opts ...func(*config.LoadOptions) error) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := append([]func(*config.LoadOptions) error{config.WithRegion(region)}, opts...)
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3Store(awsCfg, cfg, nil), nil
}

func newS3Store(awsCfg aws.Config, cfg Config, customize func(*s3.Options)) *S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if customize != nil {
			customize(o)
		}
	})
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBaseURL(cfg, awsCfg.Region),
	}
}

// publicBaseURL derives where stored objects can be fetched from.
func publicBaseURL(cfg Config, region string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "" && cfg.PathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		}
		return u.Scheme + "://" + cfg.Bucket + "." + u.Host
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
	}
}

// Put uploads the object and returns its public URL.
func (s *S3Store) Put(ctx context.Context, obj ports.BlobObject) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(obj.Key),
		Body:   obj.Body,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %s: %w", obj.Key, err)
	}
	return s.URL(obj.Key), nil
}

// URL returns the public address of key.
func (s *S3Store) URL(key string) string {
	parts := strings.Split(key, "/")
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = url.PathEscape(part)
	}
	return s.baseURL + "/" + strings.Join(escaped, "/")
}
