package assets

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Config configures the S3-compatible asset store.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. "http://127.0.0.1:9000" for MinIO.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store writes assets to an S3 bucket.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Client connects to S3 or an S3-compatible endpoint.
func NewS3Client(cfg S3Config) *s3.Client {
	return s3.NewFromConfig(aws.Config{Region: cfg.Region}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.AccessKeyID != "" {
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		}
	})
}

// NewS3Store returns a store writing to cfg.Bucket through client.
func NewS3Store(client S3API, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 asset store: bucket is required")
	}
	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: slog.Default().With("component", "assets.s3"),
	}, nil
}

func (s *S3Store) key(assetID string) string {
	if s.prefix == "" {
		return assetID
	}
	return path.Join(s.prefix, assetID)
}

// Store uploads data and returns an s3:// location.
func (s *S3Store) Store(ctx context.Context, assetID string, data []byte, contentType string) (Stored, error) {
	if len(data) == 0 {
		return Stored{}, &StoreError{Backend: "s3", AssetID: assetID, Cause: ErrEmptyAsset}
	}

	key := s.key(assetID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return Stored{}, s.storeError(assetID, err)
	}

	s.logger.Debug("asset stored", "asset_id", assetID, "bucket", s.bucket, "key", key, "size", len(data))

	return Stored{
		AssetID:     assetID,
		ContentType: contentType,
		Size:        int64(len(data)),
		Location:    "s3://" + s.bucket + "/" + key,
	}, nil
}

// Ping checks that the bucket exists and is reachable.
func (s *S3Store) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return s.storeError("", err)
	}
	return nil
}

// storeError wraps err, lifting the S3 error code when the service sent one.
func (s *S3Store) storeError(assetID string, err error) *StoreError {
	se := &StoreError{Backend: "s3", AssetID: assetID, Cause: err}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		se.Code = apiErr.ErrorCode()
	}
	return se
}
