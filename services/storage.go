package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"agency_site_go/config"
	"agency_site_go/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StorageProvider stores inquiry attachments and published site files.
type StorageProvider interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error) // reader, content type
	Delete(ctx context.Context, key string) error
}

// StoredObject describes a file after Put.
type StoredObject struct {
	Key         string
	FileName    string
	Size        int64
	ContentType string
}

// ErrInvalidKey is returned for keys that would leave the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// Storage is the global storage instance
var Storage StorageProvider

// InitializeStorage sets up the storage provider based on configuration
func InitializeStorage(cfg *config.Config) {
	log := logging.L()
	if !cfg.R2Configured() {
		Storage = NewLocalStorage(cfg.UploadDir)
		log.Info("storage ready", zap.String("provider", "local"), zap.String("path", cfg.UploadDir))
		return
	}

	r2, err := NewR2Storage(cfg)
	if err != nil {
		log.Warn("failed to initialize R2 storage, falling back to local", zap.Error(err))
		Storage = NewLocalStorage(cfg.UploadDir)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r2.Ping(ctx); err != nil {
		log.Warn("R2 bucket connection test failed, falling back to local", zap.Error(err))
		Storage = NewLocalStorage(cfg.UploadDir)
		return
	}

	Storage = r2
	log.Info("storage ready", zap.String("provider", "r2"), zap.String("bucket", cfg.R2BucketName))
}

// R2Storage keeps files in a Cloudflare R2 bucket through the S3 API.
type R2Storage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewR2Storage creates a client for https://<account_id>.r2.cloudflarestorage.com.
func NewR2Storage(cfg *config.Config) (*R2Storage, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	creds := credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
	return &R2Storage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.R2BucketName,
	}, nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (r *R2Storage) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	return err
}

// Put uploads body under key.
func (r *R2Storage) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*StoredObject, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to R2: %w", err)
	}
	return &StoredObject{Key: key, FileName: path.Base(key), Size: size, ContentType: contentType}, nil
}

// Get streams the object stored under key.
func (r *R2Storage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object from R2: %w", err)
	}
	return result.Body, aws.ToString(result.ContentType), nil
}

// Delete removes the object stored under key.
func (r *R2Storage) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

// GetSignedURL returns a presigned download URL valid for expiration.
func (r *R2Storage) GetSignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiration))
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return req.URL, nil
}

// LocalStorage keeps files under a directory on disk.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage creates a new local storage provider
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (l *LocalStorage) path(key string) (string, error) {
	rel := filepath.FromSlash(key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(l.baseDir, rel), nil
}

// Put writes body to <baseDir>/<key>, creating parent directories.
func (l *LocalStorage) Put(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*StoredObject, error) {
	full, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, body)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	return &StoredObject{Key: key, FileName: path.Base(key), Size: written, ContentType: contentType}, nil
}

// Get opens the file stored under key. The content type comes from the
// extension.
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	full, err := l.path(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return file, contentType, nil
}

// Delete removes the file stored under key. A missing file is not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Helper functions for generating storage keys

// GenerateStorageKey creates a unique storage key for files
func GenerateStorageKey(prefix string, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	uniqueID := uuid.New().String()
	timestamp := time.Now().Unix()
	filename := fmt.Sprintf("%s_%d%s", uniqueID, timestamp, ext)
	return filepath.ToSlash(filepath.Join(prefix, filename))
}

// GenerateInquiryAttachmentKey creates a storage key for service inquiry attachments
func GenerateInquiryAttachmentKey(inquiryID, originalFilename string) string {
	prefix := fmt.Sprintf("inquiries/%s", inquiryID)
	return GenerateStorageKey(prefix, originalFilename)
}

// PublishDir uploads every file under dir to provider, keyed by prefix plus
// the file's slash-separated path relative to dir. Uploads run concurrently.
func PublishDir(ctx context.Context, provider StorageProvider, dir, prefix string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, name)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, file := range files {
		g.Go(func() error {
			rel, err := filepath.Rel(dir, file)
			if err != nil {
				return err
			}
			key := strings.TrimPrefix(filepath.ToSlash(filepath.Join(prefix, rel)), "/")

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return err
			}
			contentType := mime.TypeByExtension(filepath.Ext(file))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			if _, err := provider.Put(gctx, key, f, contentType, info.Size()); err != nil {
				return fmt.Errorf("failed to publish %s: %w", key, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(files), nil
}
