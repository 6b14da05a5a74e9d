package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/df07/go-whitted-raytracer/pkg/config"
	"github.com/df07/go-whitted-raytracer/pkg/core"
)

// UploadTimeout bounds a single upload
const UploadTimeout = 30 * time.Second

// ErrS3Disabled is returned when no bucket is configured
var ErrS3Disabled = errors.New("s3 upload is not configured")

// S3Uploader stores rendered images in an S3-compatible bucket
type S3Uploader struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger core.Logger
}

// NewS3Uploader creates an uploader from the S3 settings. Static credentials
// are used when an access key is set; otherwise the SDK's default chain applies.
func NewS3Uploader(cfg config.S3Config, logger core.Logger) (*S3Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrS3Disabled
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewS3UploaderWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix, logger), nil
}

// NewS3UploaderWithClient wraps an existing S3 client
func NewS3UploaderWithClient(client s3iface.S3API, bucket, prefix string, logger core.Logger) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Key returns the object key name is stored under
func (u *S3Uploader) Key(name string) string {
	return path.Join(u.prefix, name)
}

// UploadPNG encodes img as PNG and stores it under the prefixed name.
// It returns the full object key.
func (u *S3Uploader) UploadPNG(ctx context.Context, name string, img image.Image) (string, error) {
	data, err := PNGBytes(img)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	key := u.Key(name)
	size := int64(len(data))
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if u.logger != nil {
		u.logger.Printf("Uploaded %s to s3://%s (%d bytes)", key, u.bucket, size)
	}
	return key, nil
}
