package archive

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

type fakePresign struct {
	in  *s3.GetObjectInput
	err error
}

func (f *fakePresign) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	return &v4.PresignedHTTPRequest{URL: "https://minio.local/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key) + "?sig=1"}, nil
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	key := ObjectKey("u1", ".pdf", at)
	assert.Regexp(t, regexp.MustCompile(`^reports/u1/2024/03/09/[0-9a-f-]{36}\.pdf$`), key)
	assert.NotEqual(t, key, ObjectKey("u1", "pdf", at))
}

func TestUpload(t *testing.T) {
	fs := &fakeS3{}
	u := NewWithClient("bucket", fs, nil)
	u.now = func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }

	key, err := u.Upload(context.Background(), "u1", "csv", "text/csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Regexp(t, `^reports/u1/2024/01/02/.+\.csv$`, key)

	require.NotNil(t, fs.in)
	assert.Equal(t, "bucket", aws.ToString(fs.in.Bucket))
	assert.Equal(t, key, aws.ToString(fs.in.Key))
	assert.Equal(t, "text/csv", aws.ToString(fs.in.ContentType))
	assert.Equal(t, int64(4), aws.ToInt64(fs.in.ContentLength))
	assert.Equal(t, "a,b\n", string(fs.body))
}

func TestUpload_Error(t *testing.T) {
	u := NewWithClient("bucket", &fakeS3{err: errors.New("denied")}, nil)
	_, err := u.Upload(context.Background(), "u1", "csv", "text/csv", nil)
	assert.ErrorContains(t, err, "denied")
}

func TestDownloadURL(t *testing.T) {
	fp := &fakePresign{}
	u := NewWithClient("bucket", &fakeS3{}, fp)

	link, err := u.DownloadURL(context.Background(), "reports/k.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://minio.local/bucket/reports/k.pdf?sig=1", link)

	fp.err = errors.New("no creds")
	_, err = u.DownloadURL(context.Background(), "k")
	assert.ErrorContains(t, err, "no creds")

	_, err = NewWithClient("bucket", &fakeS3{}, nil).DownloadURL(context.Background(), "k")
	assert.Error(t, err)
}

func TestNew_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user", creds.AccessKeyID)
		assert.Equal(t, "pass", creds.SecretAccessKey)
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	u, err := New(context.Background(), Config{
		Bucket: "reports", Region: "eu-west-1", AccessKey: "user", SecretKey: "pass",
		BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", u.bucket)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)

	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}
	_, err = New(context.Background(), Config{Bucket: "b"})
	assert.ErrorContains(t, err, "boom")
}
