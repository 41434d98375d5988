package s3client

import "time"

type Option func(c *S3Client)

// ConnAttempts sets how many times New probes the endpoint before giving up.
func ConnAttempts(attempts int) Option {
	return func(c *S3Client) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *S3Client) {
		c.connTimeout = timeout
	}
}

func Region(region string) Option {
	return func(c *S3Client) {
		if region != "" {
			c.region = region
		}
	}
}

// UsePathStyle addresses buckets as {endpoint}/{bucket}, as MinIO expects.
func UsePathStyle(use bool) Option {
	return func(c *S3Client) {
		c.usePathStyle = use
	}
}

// RetryMaxAttempts caps the SDK retries of a single request; zero keeps the SDK default.
func RetryMaxAttempts(n int) Option {
	return func(c *S3Client) {
		c.retryMaxAttempts = n
	}
}
