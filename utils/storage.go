package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// StorageService stores product images in S3 and resolves their keys to
// time-limited signed URLs at response time. URLs are never persisted.
type StorageService struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewStorageService connects to S3. With no bucket configured the service is
// disabled: uploads fail, signed URL lookups return an empty string.
func NewStorageService(ctx context.Context, region, bucket string) (*StorageService, error) {
	if bucket == "" {
		log.Println("S3_BUCKET not set, object storage disabled")
		return &StorageService{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return &StorageService{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}, nil
}

// Upload stores the file under a generated key inside the given folder and
// returns the key.
func (ss *StorageService) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	if ss.client == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	key := fmt.Sprintf("%s/%s-%s", folder, uuid.NewString(), filename)
	_, err := ss.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	return key, nil
}

// SignedURL resolves a stored key to a time-limited GET URL.
func (ss *StorageService) SignedURL(ctx context.Context, key string) (string, error) {
	if ss.presign == nil || key == "" {
		return "", nil
	}
	req, err := ss.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return req.URL, nil
}

// Delete removes a stored object.
func (ss *StorageService) Delete(ctx context.Context, key string) error {
	if ss.client == nil {
		return nil
	}
	_, err := ss.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	return err
}
