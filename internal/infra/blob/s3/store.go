package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithy "github.com/aws/smithy-go"

	"fishlog/internal/blob/core"
)

var _ core.ObjectStore = (*Store)(nil)

// Store implements core.ObjectStore using an S3-compatible backend (AWS S3 or MinIO).
// The application container is a key prefix inside a single bucket; object
// ids are the full object keys.
type Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// Config holds explicit construction parameters.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // application container, e.g. "fishlog"
	Endpoint        string // optional; if set enables custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
}

// New creates an S3 object store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(staticCredentials(cfg)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client *s3.Client, bucket, prefix string) *Store {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	s := &Store{client: client, bucket: bucket, prefix: prefix}
	if client != nil {
		s.uploader = manager.NewUploader(client)
	}
	return s
}

func (s *Store) Driver() core.Driver { return core.DriverS3 }

func (s *Store) keyFor(name string) string { return s.prefix + name }

// EnsureContainer checks the bucket and writes the container marker object.
func (s *Store) EnsureContainer(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	if s.prefix == "" {
		return nil
	}
	marker := s.prefix
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &marker})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{Bucket: &s.bucket, Key: &marker, Body: bytes.NewReader(nil)})
	return err
}

// Find looks up name inside the container with HeadObject.
func (s *Store) Find(ctx context.Context, name string) (core.Info, bool, error) {
	key := s.keyFor(name)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return core.Info{}, false, nil
		}
		return core.Info{}, false, err
	}
	return s.fromHead(key, aws.ToInt64(out.ContentLength), out.ETag, out.LastModified), true, nil
}

// Create stores a new object named name.
func (s *Store) Create(ctx context.Context, name string, r io.Reader) (core.Info, error) {
	return s.put(ctx, s.keyFor(name), r)
}

// Update overwrites the object with the given id (its key).
func (s *Store) Update(ctx context.Context, id string, r io.Reader) (core.Info, error) {
	return s.put(ctx, id, r)
}

// put streams r to key. The uploader reads one part at a time, so a slow
// request holds back the producer instead of buffering the whole document.
func (s *Store) put(ctx context.Context, key string, r io.Reader) (core.Info, error) {
	body := &countingReader{r: r}
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        body,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return core.Info{}, err
	}
	now := time.Now().UTC()
	return s.fromHead(key, body.n, out.ETag, &now), nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Download streams the object body into w.
func (s *Store) Download(ctx context.Context, id string, w io.Writer) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &id})
	if err != nil {
		if isNotFound(err) {
			return core.ErrNotFound
		}
		return err
	}
	defer func() { _ = out.Body.Close() }()
	_, err = io.Copy(w, out.Body)
	return err
}

func (s *Store) fromHead(key string, size int64, etag *string, lastModified *time.Time) core.Info {
	var et string
	if etag != nil {
		et = strings.Trim(*etag, "\"")
	}
	lm := time.Now().UTC()
	if lastModified != nil {
		lm = *lastModified
	}
	return core.Info{ID: key, Name: strings.TrimPrefix(key, s.prefix), Size: size, ETag: et, LastModified: lm}
}

func staticCredentials(cfg Config) aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)
}

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == 404 {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}
