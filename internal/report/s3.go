package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Putter is the slice of the S3 API the archiver needs.
type s3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver stores CSV exports in S3 under per-tenant prefixes.
type Archiver struct {
	client s3Putter
	bucket string
}

// NewArchiver creates an archiver for the given bucket using the ambient AWS
// credential chain.
func NewArchiver(ctx context.Context, bucket, region string) (*Archiver, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Archiver{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// Archive uploads a CSV export for one tenant. The object key is
// reports/<client_id>/<filename>.
func (a *Archiver) Archive(ctx context.Context, clientID int64, day time.Time, csvData []byte) (string, error) {
	key := fmt.Sprintf("reports/%d/%s", clientID, Filename(day))
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(csvData),
		ContentType: aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("putting report to S3: %w", err)
	}
	return key, nil
}
