package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is a one-off URL the client can PUT an object to.
type PresignedUpload struct {
	URL       string            `json:"url"`
	Key       string            `json:"key"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// UploadPresigner issues presigned upload URLs.
type UploadPresigner interface {
	PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error)
}

// S3Presigner presigns PUT requests against a single bucket.
type S3Presigner struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

func NewS3Presigner(cfg sdkaws.Config, bucket string, expiry time.Duration) *S3Presigner {
	return &S3Presigner{
		presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:    bucket,
		expiry:    expiry,
	}
}

// PresignPut generates a presigned PUT URL for key in the configured bucket.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := p.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = p.expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{
		URL:       presigned.URL,
		Key:       key,
		Headers:   headers,
		ExpiresAt: time.Now().Add(p.expiry),
	}, nil
}
