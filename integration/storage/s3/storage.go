package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds object storage settings. The defaults target Cloudflare R2,
// which speaks the S3 API with region "auto".
type Config struct {
	Bucket          string        `env:"S3_BUCKET"`
	Region          string        `env:"S3_REGION" envDefault:"auto"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string        `env:"S3_ENDPOINT"`
	PublicURL       string        `env:"S3_PUBLIC_URL"`
	ForcePathStyle  bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	UploadTimeout   time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"60s"`
	MaxObjectSize   int64         `env:"S3_MAX_OBJECT_SIZE" envDefault:"52428800"`
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// S3Client is the subset of the SDK client used by Storage.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// Object describes a stored object.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Storage stores paste images in an S3-compatible bucket.
type Storage struct {
	client         S3Client
	bucket         string
	region         string
	endpoint       string
	publicURL      string
	forcePathStyle bool
	uploadTimeout  time.Duration
	maxObjectSize  int64
}

// Option configures New.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	client        S3Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*s3aws.Options)
}

// WithClient replaces the SDK client, mostly for tests.
func WithClient(client S3Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithConfigOption appends an AWS config load option.
func WithConfigOption(option func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, option)
	}
}

// WithClientOption appends an S3 client option.
func WithClientOption(option func(*s3aws.Options)) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, option)
	}
}

// New builds a Storage. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		if o.httpClient != nil {
			awsOptions = append(awsOptions, config.WithHTTPClient(o.httpClient))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		client = s3aws.NewFromConfig(awsConfig, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.clientOptions {
				opt(so)
			}
		})
	}

	return &Storage{
		client:         client,
		bucket:         cfg.Bucket,
		region:         cfg.Region,
		endpoint:       cfg.Endpoint,
		publicURL:      cfg.PublicURL,
		forcePathStyle: cfg.ForcePathStyle,
		uploadTimeout:  cfg.UploadTimeout,
		maxObjectSize:  cfg.MaxObjectSize,
	}, nil
}

// Put uploads data under key.
func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	if s.maxObjectSize > 0 && int64(len(data)) > s.maxObjectSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrObjectTooLarge, len(data))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}

	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return nil, classifyS3Error(err, "upload object")
	}

	return &Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// Get downloads the object stored under key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, *Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, nil, err
	}

	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, classifyS3Error(err, "download object")
	}
	defer func() { _ = out.Body.Close() }()

	body := io.Reader(out.Body)
	if s.maxObjectSize > 0 {
		body = io.LimitReader(out.Body, s.maxObjectSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, classifyS3Error(err, "read object")
	}
	if s.maxObjectSize > 0 && int64(len(data)) > s.maxObjectSize {
		return nil, nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}

	obj := &Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: aws.ToString(out.ContentType),
		Size:        int64(len(data)),
	}
	if obj.ContentType == "" {
		obj.ContentType = http.DetectContentType(data)
	}
	return data, obj, nil
}

// Delete removes the object stored under key. Missing objects are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return classifyS3Error(err, "delete object")
}

// Healthcheck verifies that the bucket is reachable. A missing marker object
// is fine, anything else is not.
func (s *Storage) Healthcheck(ctx context.Context) error {
	_, err := s.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(".healthcheck"),
	})
	if err = classifyS3Error(err, "healthcheck"); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// URL returns the public URL of key.
func (s *Storage) URL(key string) string {
	key = strings.TrimPrefix(key, "/")

	if s.publicURL != "" {
		return strings.TrimSuffix(s.publicURL, "/") + "/" + key
	}

	if s.endpoint != "" {
		endpoint := strings.TrimSuffix(s.endpoint, "/")
		protocol := "https://"
		if after, ok := strings.CutPrefix(endpoint, "http://"); ok {
			protocol = "http://"
			endpoint = after
		} else if after, ok := strings.CutPrefix(endpoint, "https://"); ok {
			endpoint = after
		}

		if s.forcePathStyle {
			return fmt.Sprintf("%s%s/%s/%s", protocol, endpoint, s.bucket, key)
		}
		return fmt.Sprintf("%s%s.%s/%s", protocol, s.bucket, endpoint, key)
	}

	if s.forcePathStyle {
		return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", s.region, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key, nil
}
