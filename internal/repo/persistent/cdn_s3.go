package persistent

import (
	"context"
	"fmt"
	"os"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/s3client"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const cdnContentType = "image/jpeg"

// CDNRepo mirrors derived CDN copies into an S3 bucket.
type CDNRepo struct {
	*s3client.S3Client
	bucket string
}

func NewCDNRepo(s3c *s3client.S3Client, bucket string) *CDNRepo {
	return &CDNRepo{s3c, bucket}
}

func (r *CDNRepo) Publish(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("CDNRepo - Publish - os.Open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("CDNRepo - Publish - f.Stat: %w", err)
	}

	_, err = r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(cdnContentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return fmt.Errorf("CDNRepo - Publish - r.Client.PutObject: %w", err)
	}

	return nil
}
