package photostore

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	lerrors "github.com/tphakala/lifelist/internal/errors"
)

// S3Config configures an S3Store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3 compatible endpoint, empty for AWS
	PathStyle bool
	Prefix    string // optional key prefix inside the bucket

	// Static credentials; empty uses the default AWS credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps photos in an S3 compatible bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store loads the AWS configuration and builds a client.
func NewS3Store(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, lerrors.Newf("s3 bucket is not configured").
			Component(component).
			Category(lerrors.CategoryConfiguration).
			Build()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, lerrors.New(err).
			Component(component).
			Category(lerrors.CategoryConfiguration).
			Context("bucket", cfg.Bucket).
			Build()
	}

	opts := []func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		// self-hosted stores often reject streaming checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	}}
	client := s3.NewFromConfig(awsCfg, append(opts, optFns...)...)

	prefix := strings.Trim(cfg.Prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &S3Store{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Driver returns DriverS3.
func (s *S3Store) Driver() string { return DriverS3 }

func (s *S3Store) objectKey(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

// Put uploads the object. The body is buffered when r cannot seek.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader) error {
	obj, err := s.objectKey(key)
	if err != nil {
		return err
	}
	body, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return storageError(err, "put", key)
		}
		body = strings.NewReader(string(data))
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &obj, Body: body}
	if strings.HasSuffix(obj, ".jpg") || strings.HasSuffix(obj, ".jpeg") {
		input.ContentType = aws.String("image/jpeg")
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return storageError(err, "put", key)
	}
	return nil
}

// Open downloads the object body.
func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &obj})
	if err != nil {
		if isMissing(err) {
			return nil, notExist(key)
		}
		return nil, storageError(err, "open", key)
	}
	return out.Body, nil
}

// Delete removes the object; S3 treats missing keys as deleted.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	obj, err := s.objectKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &obj}); err != nil && !isMissing(err) {
		return storageError(err, "delete", key)
	}
	return nil
}

// List pages through ListObjectsV2.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := s.prefix + prefix
	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &full})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError(err, "list", prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(obj.Key), s.prefix))
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func isMissing(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
