// Package archive uploads rendered reports to an S3-compatible bucket and
// hands out time-limited download links for them.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const linkValidity = 15 * time.Minute

type Config struct {
	Bucket       string
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignGetAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Uploader struct {
	bucket  string
	client  putObjectAPI
	presign presignGetAPI
	now     func() time.Time
}

// New builds an uploader with static credentials. Path-style addressing
// keeps MinIO and other self-hosted endpoints working.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is not set")
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return NewWithClient(cfg.Bucket, client, s3.NewPresignClient(client)), nil
}

// NewWithClient wires prepared clients; presign may be nil.
func NewWithClient(bucket string, client putObjectAPI, presign presignGetAPI) *Uploader {
	return &Uploader{bucket: bucket, client: client, presign: presign, now: time.Now}
}

// ObjectKey lays reports out per user and day.
func ObjectKey(userID, ext string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("reports/%s/%04d/%02d/%02d/%s.%s",
		userID, t.Year(), int(t.Month()), t.Day(), uuid.NewString(), strings.TrimPrefix(ext, "."))
}

// Upload stores body and returns the object key.
func (u *Uploader) Upload(ctx context.Context, userID, ext, contentType string, body []byte) (string, error) {
	key := ObjectKey(userID, ext, u.now())

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

// DownloadURL presigns a GET for key.
func (u *Uploader) DownloadURL(ctx context.Context, key string) (string, error) {
	if u.presign == nil {
		return "", fmt.Errorf("presigning is not available")
	}

	req, err := u.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(linkValidity))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
