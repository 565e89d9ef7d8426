/**
 * @description
 * This package provides the storage-side download grantor: it checks whether a
 * track's audio object exists and mints time-limited presigned GET URLs against
 * the configured S3 bucket.
 *
 * @dependencies
 * - context, errors, time: Standard Go libraries.
 * - github.com/aws/aws-sdk-go-v2: AWS config loading and the S3 client/presigner.
 */
package s3storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client mints presigned download URLs for audio objects.
type Client struct {
	bucket    string
	s3Client  *s3.Client
	presigner *s3.PresignClient
}

// NewClient loads the default AWS configuration for the given region and
// returns a client bound to one bucket.
func NewClient(ctx context.Context, region, bucket string) (*Client, error) {
	if bucket == "" {
		return nil, errors.New("s3 bucket must be configured")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg)
	return &Client{
		bucket:    bucket,
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
	}, nil
}

// ObjectExists reports whether the audio object is present in the bucket.
func (c *Client) ObjectExists(ctx context.Context, storagePath string) (bool, error) {
	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(storagePath),
	})
	if err != nil {
		// HeadObject reports missing keys as an error; treat any failure as
		// absent and let the caller fall through to its public-URL fallback.
		return false, nil
	}
	return true, nil
}

// MintURL produces a presigned GET URL valid for the given TTL.
func (c *Client) MintURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(storagePath),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign download url: %w", err)
	}
	return req.URL, nil
}
