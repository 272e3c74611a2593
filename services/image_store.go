package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/config"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rs/zerolog/log"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

// allowedImageTypes maps accepted extensions to their content type.
var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// AllowedImageExtensions lists the accepted file extensions.
func AllowedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif"}
}

// ImageContentType returns the content type for filename, or false when the
// extension is not an accepted image type.
func ImageContentType(filename string) (string, bool) {
	contentType, ok := allowedImageTypes[strings.ToLower(filepath.Ext(filename))]
	return contentType, ok
}

// NewImageName generates a collision-free object name that keeps the
// original extension.
func NewImageName(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// ImageStore persists uploaded images and returns the URL they are served from.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
}

// NewImageStore picks the backend named by UPLOAD_BACKEND (local or s3).
func NewImageStore(ctx context.Context, c map[string]string) (ImageStore, error) {
	backend := config.GetString(c, "UPLOAD_BACKEND", "local")
	publicBaseURL := strings.TrimSuffix(config.GetString(c, "UPLOAD_PUBLIC_BASE_URL", ""), "/")

	switch backend {
	case "local":
		dir := config.GetString(c, "UPLOAD_DIR", "uploads")
		return NewLocalImageStore(dir, publicBaseURL)
	case "s3":
		bucket := config.GetString(c, "UPLOAD_S3_BUCKET", "")
		if bucket == "" {
			return nil, errs.NewEnvironmentVariableError("UPLOAD_S3_BUCKET")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errs.NewConfigError("aws", err)
		}
		client := s3.NewFromConfig(awsCfg)
		prefix := config.GetString(c, "UPLOAD_S3_PREFIX", "uploads")
		return NewS3ImageStore(client, bucket, prefix, publicBaseURL), nil
	default:
		return nil, errs.NewEnvironmentVariableError("UPLOAD_BACKEND")
	}
}

// LocalImageStore writes images to a directory served under /uploads/.
type LocalImageStore struct {
	dir           string
	publicBaseURL string
}

func NewLocalImageStore(dir, publicBaseURL string) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.NewConfigError("UPLOAD_DIR", err)
	}
	return &LocalImageStore{dir: dir, publicBaseURL: publicBaseURL}, nil
}

// Dir is the directory files are written to.
func (s *LocalImageStore) Dir() string {
	return s.dir
}

func (s *LocalImageStore) Save(ctx context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errs.NewStorageUploadError("local", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", errs.NewStorageUploadError("local", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errs.NewStorageUploadError("local", err)
	}

	log.Debug().Str("path", path).Msg("stored upload on disk")
	return s.publicBaseURL + "/uploads/" + filepath.Base(name), nil
}

// S3PutObjectAPI is the slice of the S3 client the image store needs.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images to a bucket under a key prefix.
type S3ImageStore struct {
	client        S3PutObjectAPI
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3ImageStore(client S3PutObjectAPI, bucket, prefix, publicBaseURL string) *S3ImageStore {
	return &S3ImageStore{
		client:        client,
		bucket:        bucket,
		prefix:        strings.Trim(prefix, "/"),
		publicBaseURL: publicBaseURL,
	}
}

func (s *S3ImageStore) objectKey(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3ImageStore) Save(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	key := s.objectKey(filepath.Base(name))

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", errs.NewStorageUploadError("s3", err)
	}

	log.Debug().Str("bucket", s.bucket).Str("key", key).Msg("stored upload in s3")
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key), nil
}
