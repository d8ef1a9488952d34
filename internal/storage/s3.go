package storage

import (
	"bytes"
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/config"
)

// s3Storage implements the ObjectStorage interface using an
// S3-compatible backend.
type s3Storage struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
	logger     *zap.Logger
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(cfg config.S3Config, logger *zap.Logger) (ObjectStorage, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fall back to default AWS endpoint resolution.
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services
	// (like MinIO).
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	logger.Info("S3 storage initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.BucketName))

	return &s3Storage{
		client:     s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

func (s *s3Storage) Bucket() string {
	return s.bucketName
}

// Put uploads an object with public-read visibility and returns its
// public URL and ETag.
func (s *s3Storage) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) (PutResult, error) {
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Error("S3 upload failed", zap.String("key", key), zap.Error(err))
		return PutResult{}, mapS3Error(err)
	}

	return PutResult{
		URL:  out.Location,
		ETag: aws.ToString(out.ETag),
	}, nil
}

// Delete removes an object from the bucket. An already-absent key is
// treated as success so catalog deletion can proceed.
func (s *s3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			s.logger.Warn("object already absent on delete", zap.String("key", key))
			return nil
		}
		s.logger.Error("S3 delete failed", zap.String("key", key), zap.Error(err))
		return mapS3Error(err)
	}
	return nil
}

// HealthCheck verifies the bucket is reachable with the configured
// credentials.
func (s *s3Storage) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return mapS3Error(err)
	}
	return nil
}

// mapS3Error tags provider failures at the point they occur; the HTTP
// boundary never inspects S3 error codes itself.
func mapS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return apperr.Wrap(apperr.KindStore, "S3 bucket not found", err)
		case "AccessDenied":
			return apperr.Wrap(apperr.KindStore, "S3 access denied", err)
		}
	}
	return apperr.Wrap(apperr.KindStore, "Storage operation failed", err)
}
