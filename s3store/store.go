// Package s3store implements filesmanager.ObjectStore on an Amazon S3 (or
// S3-compatible) bucket using aws-sdk-go-v2.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/lista5/filesmanager"
	"github.com/lista5/filesmanager/metrics"
)

const (
	// DefaultBucket and DefaultRegion match the deployment the API was built for.
	DefaultBucket = "lista5filesmanager"
	DefaultRegion = "us-east-1"

	backendName = "s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Config holds S3 connection settings.
type Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, e.g. http://localhost:9000 for MinIO.
	Endpoint string
	// AccessKey and SecretKey select static credentials. When both are empty
	// the default AWS credential chain is used.
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// client is the subset of *s3.Client used by Store.
type client interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store implements filesmanager.ObjectStore backed by one S3 bucket.
type Store struct {
	client    client
	presigner presigner
	bucket    string
	region    string
	endpoint  string
}

// New creates a Store. It does not contact S3; call EnsureBucket before use.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, filesmanager.NewStoreError("load aws config", "", filesmanager.ErrCredentialsMissing, err)
	}

	c := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// A failed store call surfaces to the client as a 502 right away.
		o.Retryer = aws.NopRetryer{}
	})

	return newStore(c, s3.NewPresignClient(c), cfg), nil
}

func newStore(c client, p presigner, cfg Config) *Store {
	return &Store{
		client:    c,
		presigner: p,
		bucket:    cfg.Bucket,
		region:    cfg.Region,
		endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
	}
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.bucket
}

// EnsureBucket checks that the bucket exists and creates it when S3 reports
// it missing. A 403 is reported as filesmanager.ErrAccessDenied.
func (s *Store) EnsureBucket(ctx context.Context) error {
	start := time.Now()
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		metrics.RecordStoreOperation(backendName, "head_bucket", time.Since(start), true)
		return nil
	}
	metrics.RecordStoreOperation(backendName, "head_bucket", time.Since(start), false)

	switch {
	case isCredentialsError(err):
		return filesmanager.NewStoreError("ensure bucket", s.bucket, filesmanager.ErrCredentialsMissing, err)
	case statusCode(err) == 403:
		return filesmanager.NewStoreError("ensure bucket", s.bucket, filesmanager.ErrAccessDenied, err)
	case !isNotFound(err):
		return filesmanager.NewStoreError("ensure bucket", s.bucket, filesmanager.ErrUnexpected, err)
	}

	start = time.Now()
	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 rejects an explicit location constraint.
	if s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		metrics.RecordStoreOperation(backendName, "create_bucket", time.Since(start), false)
		return filesmanager.NewStoreError("create bucket", s.bucket, classify(err, filesmanager.ErrUnexpected), err)
	}

	metrics.RecordStoreOperation(backendName, "create_bucket", time.Since(start), true)
	slog.Info("created S3 bucket", "bucket", s.bucket, "region", s.region)
	return nil
}

// PutObject uploads the file at localPath under key and returns its public
// (unsigned) URL.
func (s *Store) PutObject(ctx context.Context, localPath, key string) (string, error) {
	start := time.Now()

	f, err := os.Open(localPath) //#nosec G304 -- localPath is a staged upload
	if err != nil {
		return "", filesmanager.NewStoreError("put object", key, filesmanager.ErrUploadFailed, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", filesmanager.NewStoreError("put object", key, filesmanager.ErrUploadFailed, err)
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		metrics.RecordStoreOperation(backendName, "put_object", time.Since(start), false)
		return "", filesmanager.NewStoreError("put object", key, classify(err, filesmanager.ErrUploadFailed), err)
	}

	metrics.RecordStoreOperation(backendName, "put_object", time.Since(start), true)
	slog.Debug("S3 put object", "key", key, "size", info.Size())
	return s.PublicURL(key), nil
}

// ListObjects lists the bucket with a single request. S3 returns at most
// 1000 keys per request; a truncated listing is logged and returned as is.
func (s *Store) ListObjects(ctx context.Context) ([]filesmanager.StoreObject, error) {
	start := time.Now()

	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		metrics.RecordStoreOperation(backendName, "list_objects", time.Since(start), false)
		return nil, filesmanager.NewStoreError("list objects", "", classify(err, filesmanager.ErrListFailed), err)
	}
	metrics.RecordStoreOperation(backendName, "list_objects", time.Since(start), true)

	if aws.ToBool(out.IsTruncated) {
		slog.Warn("S3 listing truncated, some objects are not indexed",
			"bucket", s.bucket, "returned", len(out.Contents))
	}

	objects := make([]filesmanager.StoreObject, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		if key == "" {
			continue
		}
		objects = append(objects, filesmanager.StoreObject{Key: key, URL: s.PublicURL(key)})
	}

	return objects, nil
}

// SignedReadURL presigns a GET for key valid for ttl.
func (s *Store) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", filesmanager.NewStoreError("sign url", key, classify(err, filesmanager.ErrSignFailed), err)
	}

	return req.URL, nil
}

// RenameObject copies oldKey to newKey, then deletes oldKey. If the delete
// fails both keys exist until the next delete or rename.
func (s *Store) RenameObject(ctx context.Context, oldKey, newKey string) error {
	start := time.Now()

	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(newKey),
		CopySource: aws.String(s.bucket + "/" + url.PathEscape(oldKey)),
	})
	if err != nil {
		metrics.RecordStoreOperation(backendName, "copy_object", time.Since(start), false)
		return filesmanager.NewStoreError("rename object", oldKey, classify(err, filesmanager.ErrRenameFailed), notFound(err))
	}
	metrics.RecordStoreOperation(backendName, "copy_object", time.Since(start), true)

	start = time.Now()
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(oldKey),
	})
	if err != nil {
		metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), false)
		return filesmanager.NewStoreError("rename object", oldKey, classify(err, filesmanager.ErrRenameFailed), err)
	}
	metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), true)

	slog.Debug("S3 rename object", "src", oldKey, "dst", newKey)
	return nil
}

// DeleteObject removes key. S3 reports success for keys that do not exist.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), false)
		return filesmanager.NewStoreError("delete object", key, classify(err, filesmanager.ErrDeleteFailed), err)
	}

	metrics.RecordStoreOperation(backendName, "delete_object", time.Since(start), true)
	slog.Debug("S3 delete object", "key", key)
	return nil
}

// PublicURL returns the unsigned URL of key.
//
//	https://{bucket}.s3.{region}.amazonaws.com/{key}   default endpoint
//	{endpoint}/{bucket}/{key}                          custom endpoint
func (s *Store) PublicURL(key string) string {
	escaped := url.PathEscape(key)
	if s.endpoint != "" {
		return s.endpoint + "/" + s.bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

// classify maps an SDK error to an error kind, falling back to def.
func classify(err error, def error) error {
	switch {
	case isCredentialsError(err):
		return filesmanager.ErrCredentialsMissing
	case statusCode(err) == 403:
		return filesmanager.ErrAccessDenied
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return filesmanager.ErrAccessDenied
		}
	}

	return def
}

func statusCode(err error) int {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return 0
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsb *types.NoSuchBucket
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsb) || errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey":
			return true
		}
	}

	return statusCode(err) == 404
}

func notFound(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", filesmanager.ErrNotFound, err)
	}
	return err
}

// isCredentialsError reports whether err came from resolving credentials
// rather than from S3 itself. The SDK does not export a type for this.
func isCredentialsError(err error) bool {
	if statusCode(err) != 0 {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "get credentials") ||
		strings.Contains(msg, "retrieve credentials") ||
		strings.Contains(msg, "AnonymousCredentials")
}
