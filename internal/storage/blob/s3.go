package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures an S3 (or S3-compatible) blob store
type S3Options struct {
	Bucket    string
	Prefix    string // prepended to every key inside the bucket
	Region    string
	Endpoint  string // MinIO or other S3-compatible endpoint; empty = AWS
	AccessKey string // empty = default credential chain
	SecretKey string
}

// S3Store keeps blobs as objects in one bucket. The location is the key
// without the configured prefix, so moving the prefix does not rewrite
// metadata.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store builds an S3 client from the options
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, opts.Bucket, opts.Prefix), nil
}

func newS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}
}

// Write uploads r under key. Large bodies go through multipart upload.
func (s *S3Store) Write(ctx context.Context, key string, r io.ReadSeeker) (vaultSvc.BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return vaultSvc.BlobInfo{}, err
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("measure content: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("rewind content: %w", err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + key),
		Body:   r,
	})
	if err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("upload %s: %w", key, err)
	}

	return vaultSvc.BlobInfo{Location: key, Size: size}, nil
}

// Read opens the object at location
func (s *S3Store) Read(ctx context.Context, location string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + location),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noKey) || errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", location, vaultSvc.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", location, err)
	}
	return out.Body, nil
}

// ValidateSetup verifies the bucket is reachable with the configured credentials
func (s *S3Store) ValidateSetup(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

var _ vaultSvc.BlobStore = (*S3Store)(nil)
