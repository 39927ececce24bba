package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ledgerchat/ledgerchat/internal/config"
	"github.com/ledgerchat/ledgerchat/internal/dbquery"
)

type objectClient interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket, region string) error
}

// ExportInfo describes one uploaded result file.
type ExportInfo struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes"`
}

// Exporter writes query results as parquet files to S3-compatible object
// storage.
type Exporter struct {
	client objectClient
	bucket string
	prefix string
}

func New(ctx context.Context, cfg config.ExportConfig) (*Exporter, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("export endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("export bucket is required")
	}

	mc, err := newMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	exporter := &Exporter{
		client: mc,
		bucket: strings.TrimSpace(cfg.Bucket),
		prefix: cleanPrefix(cfg.Prefix),
	}
	if cfg.AutoCreateBucket {
		if err := exporter.ensureBucket(ctx, strings.TrimSpace(cfg.Region)); err != nil {
			return nil, err
		}
	}
	return exporter, nil
}

func NewWithClient(bucket, prefix string, c objectClient) (*Exporter, error) {
	if c == nil {
		return nil, fmt.Errorf("client is required")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &Exporter{client: c, bucket: strings.TrimSpace(bucket), prefix: cleanPrefix(prefix)}, nil
}

// Export encodes the result and uploads it under a date-partitioned key.
func (e *Exporter) Export(ctx context.Context, result dbquery.Result) (ExportInfo, error) {
	now := time.Now().UTC()
	data, rowCount, err := EncodeResultToParquet(result, now)
	if err != nil {
		return ExportInfo{}, err
	}

	key := path.Join(now.Format("2006/01/02"), uuid.NewString()+".parquet")
	if e.prefix != "" {
		key = path.Join(e.prefix, key)
	}
	if err := e.client.Put(ctx, e.bucket, key, bytes.NewReader(data), int64(len(data)), "application/vnd.apache.parquet"); err != nil {
		return ExportInfo{}, fmt.Errorf("put export object %q: %w", key, err)
	}

	return ExportInfo{
		Bucket:    e.bucket,
		Key:       key,
		RowCount:  rowCount,
		SizeBytes: int64(len(data)),
	}, nil
}

func (e *Exporter) ensureBucket(ctx context.Context, region string) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", e.bucket, err)
	}
	if exists {
		return nil
	}
	if err := e.client.CreateBucket(ctx, e.bucket, region); err != nil {
		return fmt.Errorf("create bucket %q: %w", e.bucket, err)
	}
	return nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimSpace(strings.TrimPrefix(prefix, "/"))
	if prefix == "" {
		return ""
	}
	prefix = path.Clean(prefix)
	if prefix == "." {
		return ""
	}
	return prefix
}

func newMinioClient(cfg config.ExportConfig) (*minioObjectClient, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &minioObjectClient{client: client}, nil
}

func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint URL: %w", err)
		}
		if parsed.Host == "" {
			return "", false, fmt.Errorf("endpoint host is required")
		}
		if parsed.Scheme == "https" {
			return parsed.Host, true, nil
		}
		return parsed.Host, useSSL, nil
	}
	return raw, useSSL, nil
}

type minioObjectClient struct {
	client *minio.Client
}

func (m *minioObjectClient) Put(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

func (m *minioObjectClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m *minioObjectClient) CreateBucket(ctx context.Context, bucket, region string) error {
	return m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}
