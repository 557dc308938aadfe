// Package backup copies the live database to a file and optionally uploads
// the copy to S3-compatible storage. When no bucket is configured the
// NoopUploader is used and backups stay local.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/scriptdesk/internal/config"
)

// timestampLayout names backup files and object keys; it sorts lexically.
const timestampLayout = "20060102T150405Z"

// Uploader uploads a backup file and returns the object key it was stored under.
type Uploader interface {
	Upload(ctx context.Context, filePath string, takenAt time.Time) (key string, err error)
}

// s3Client defines the minimal minio.Client operations used by S3Uploader.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath, contentType string) error
}

// minioClientWrapper wraps *minio.Client to satisfy the s3Client interface.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath, contentType string) error {
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// S3Uploader uploads backups to S3-compatible storage.
type S3Uploader struct {
	client s3Client
	bucket string
	prefix string
}

// Upload stores the file under {prefix}/{timestamp}.db.
func (u *S3Uploader) Upload(ctx context.Context, filePath string, takenAt time.Time) (string, error) {
	key := objectKey(u.prefix, takenAt)
	if err := u.client.FPutObject(ctx, u.bucket, key, filePath, "application/vnd.sqlite3"); err != nil {
		return "", fmt.Errorf("upload backup to S3: %w", err)
	}
	return key, nil
}

// NoopUploader is used when S3 storage is not configured.
type NoopUploader struct{}

// Upload does nothing and returns an empty key.
func (NoopUploader) Upload(ctx context.Context, filePath string, takenAt time.Time) (string, error) {
	return "", nil
}

// NewUploader creates the appropriate Uploader based on configuration.
// Returns NoopUploader when bucket is empty, S3Uploader otherwise.
func NewUploader(cfg config.BackupConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}
	endpoint := stripScheme(cfg.Endpoint, &useSSL)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// stripScheme removes an http(s):// prefix that minio.New does not accept.
// An explicit scheme overrides the configured SSL setting.
func stripScheme(endpoint string, useSSL *bool) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		*useSSL = true
		return strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		*useSSL = false
		return strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint
}

func objectKey(prefix string, takenAt time.Time) string {
	name := takenAt.UTC().Format(timestampLayout) + ".db"
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Snapshotter writes a consistent copy of the database to path.
type Snapshotter interface {
	Backup(ctx context.Context, path string) error
}

// Result describes a completed backup.
type Result struct {
	Path      string
	SizeBytes int64
	Key       string
	TakenAt   time.Time
}

// Service takes a backup and hands it to the uploader.
type Service struct {
	source   Snapshotter
	uploader Uploader
	now      func() time.Time
}

// NewService creates a Service. A nil uploader keeps backups local.
func NewService(source Snapshotter, uploader Uploader) *Service {
	if uploader == nil {
		uploader = NoopUploader{}
	}
	return &Service{source: source, uploader: uploader, now: time.Now}
}

// DefaultPath returns dir/scriptdesk-{timestamp}.db.
func DefaultPath(dir string, takenAt time.Time) string {
	return filepath.Join(dir, "scriptdesk-"+takenAt.UTC().Format(timestampLayout)+".db")
}

// Run writes the backup to outPath (or a timestamped file in the working
// directory when empty) and uploads it. The local copy is kept either way.
func (s *Service) Run(ctx context.Context, outPath string) (*Result, error) {
	takenAt := s.now()
	if outPath == "" {
		outPath = DefaultPath(".", takenAt)
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create backup directory: %w", err)
		}
	}

	if err := s.source.Backup(ctx, outPath); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	key, err := s.uploader.Upload(ctx, outPath, takenAt)
	if err != nil {
		return nil, err
	}

	return &Result{Path: outPath, SizeBytes: info.Size(), Key: key, TakenAt: takenAt}, nil
}
