package synth

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadAPI is the subset of *manager.Uploader the publisher uses.
type UploadAPI interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type S3Config struct {
	Bucket string
	Region string
	// PublicBaseURL replaces the virtual-hosted S3 URL, e.g. a CDN origin.
	PublicBaseURL string
}

// S3Publisher uploads audio objects to a bucket.
type S3Publisher struct {
	uploader UploadAPI
	bucket   string
	baseURL  string
}

func NewS3Publisher(uploader UploadAPI, cfg S3Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 publisher: bucket is required")
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("s3 publisher: region or public base url is required")
		}
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Publisher{uploader: uploader, bucket: cfg.Bucket, baseURL: base}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, key string, audio *Audio) (string, error) {
	_, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(audio.Data),
		ContentType:   aws.String(audio.ContentType),
		ContentLength: aws.Int64(int64(len(audio.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return p.URL(key), nil
}

// URL returns the public URL for key.
func (p *S3Publisher) URL(key string) string {
	return p.baseURL + "/" + key
}
