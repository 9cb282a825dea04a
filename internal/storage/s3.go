package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// uploadTimeout caps how long one blob upload may take. Best effort — the
// request context may already carry a tighter deadline.
const uploadTimeout = 30 * time.Second

// S3Config carries the connection settings for an S3-compatible endpoint
// (AWS itself, MinIO, or any other implementation).
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // prefix joined with the object key to form public URLs
}

// S3Storage implements BlobStorage against an S3-compatible endpoint.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

var _ BlobStorage = (*S3Storage)(nil)

// NewS3Storage builds the client once at startup; per-call state is only
// the object being transferred.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("storage: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Custom endpoints (MinIO) don't resolve bucket subdomains.
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload pushes the file at localPath under a random date-partitioned key.
// The staged file is removed afterwards regardless of outcome, so failed
// uploads don't accumulate in the staging directory.
func (s *S3Storage) Upload(ctx context.Context, localPath string) (*Upload, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("storage: opening staged file: %w", err)
	}
	defer f.Close()

	key := randomKey(filepath.Ext(localPath))
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: uploading %s: %w", key, err)
	}

	return &Upload{
		URL: s.publicBaseURL + "/" + key,
		Key: key,
	}, nil
}

// Delete removes an object by key. Deleting a key that no longer exists is
// a success in S3 semantics, which suits replace flows fine.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}

// randomKey produces a date-partitioned object key like
// "images/2026/8/29/<uuid>.png" so buckets stay browsable.
func randomKey(ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("images/%d/%d/%d/%s%s", d.Year(), int(d.Month()), d.Day(), uuid.New(), ext)
}
