package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"image-edit-saas/internal/config"
	"image-edit-saas/internal/domain/ports/adapter"
	"image-edit-saas/internal/infra/metrics"
)

var _ adapter.ObjectStorage = (*S3Storage)(nil)

// S3Storage uploads originals and masks to an S3-compatible bucket and hands
// back the public URL the generative API will fetch them from.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	log       zerolog.Logger
}

func NewS3Storage(ctx context.Context, cfg *config.StorageConfig, log zerolog.Logger) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		log:       log.With().Str("component", "s3").Logger(),
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	metrics.ObserveStorageUpload(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	url := fmt.Sprintf("%s/%s", s.publicURL, key)
	s.log.Debug().Str("key", key).Str("url", url).Msg("object uploaded")
	return url, nil
}
