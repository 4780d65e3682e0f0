// Package storage issues presigned upload URLs for report photos. Works
// with AWS S3 and S3-compatible stores such as MinIO.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/iliyamo/agrodesk/internal/config"
)

// ErrUnsupportedType is returned for content types that are not an
// accepted image format.
var ErrUnsupportedType = errors.New("unsupported image content type")

var imageExt = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/heic": "heic",
}

// Upload is a presigned PUT the client performs itself. Key is what it
// later sends as the report's image.
type Upload struct {
	Key       string    `json:"key"`
	URL       string    `json:"upload_url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImageStore presigns report photo uploads into one bucket.
type ImageStore struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

// NewImageStore builds a store from cfg. Static credentials are used when
// both key and secret are set, otherwise the default AWS chain applies.
func NewImageStore(ctx context.Context, cfg config.S3Config) (*ImageStore, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("storage/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.Key != "" && cfg.Secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, ""),
		))
	}
	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage/s3: load config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // MinIO
		})
	}

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ImageStore{
		presign: s3.NewPresignClient(s3.NewFromConfig(awsConf, clientOpts...)),
		bucket:  cfg.Bucket,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// ObjectKey returns a fresh key under reports/<userID>/ for contentType.
func ObjectKey(userID uint64, contentType string) (string, error) {
	ext, ok := imageExt[normalizeType(contentType)]
	if !ok {
		return "", ErrUnsupportedType
	}
	return fmt.Sprintf("reports/%d/%s.%s", userID, uuid.NewString(), ext), nil
}

// PresignUpload signs a PUT for a new object owned by userID.
func (s *ImageStore) PresignUpload(ctx context.Context, userID uint64, contentType string) (Upload, error) {
	key, err := ObjectKey(userID, contentType)
	if err != nil {
		return Upload{}, err
	}
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(normalizeType(contentType)),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return Upload{}, fmt.Errorf("storage/s3: presign %s: %w", key, err)
	}
	return Upload{
		Key:       key,
		URL:       req.URL,
		Method:    req.Method,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}, nil
}

func normalizeType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
