package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
)

// Config holds connection settings for the object store. Endpoint is set
// when targeting an S3-compatible store such as MinIO.
type Config struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Client moves pipeline artifacts between local scratch space and the
// object store. Large files stream through the transfer manager in 10MiB
// parts.
type Client struct {
	api        *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	configOpts = append(configOpts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	api := s3.NewFromConfig(awsCfg, clientOpts...)

	uploader := manager.NewUploader(api, func(u *manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 3
	})
	downloader := manager.NewDownloader(api, func(d *manager.Downloader) {
		d.PartSize = 10 * 1024 * 1024
		d.Concurrency = 3
	})

	return &Client{api: api, uploader: uploader, downloader: downloader}, nil
}

// UploadFile streams a local file to bucket/key. Content type is inferred
// from the file extension.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		input.ContentType = aws.String(ct)
	}

	start := time.Now()
	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}

	slog.Info("uploaded object",
		"bucket", bucket, "key", key,
		"size", humanize.Bytes(uint64(st.Size())),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// DownloadToFile fetches bucket/key into a local file, creating parent
// directories as needed.
func (c *Client) DownloadToFile(ctx context.Context, bucket, key, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	start := time.Now()
	n, err := c.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	slog.Info("downloaded object",
		"bucket", bucket, "key", key,
		"size", humanize.Bytes(uint64(n)),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
