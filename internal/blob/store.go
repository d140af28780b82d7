package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pnatali/achub/internal/config"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store archives decoded device snapshots to object storage.
type Store interface {
	Save(ctx context.Context, plugin string, data []byte) error
	LoadLatest(ctx context.Context, plugin string) ([]byte, error)
}

// S3Store keeps a timestamped history per plugin plus a latest.json mirror.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3Store(cfg *config.Blob) (*S3Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing blob config")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	bucket := strings.TrimSpace(cfg.Bucket)
	prefix := strings.TrimSpace(cfg.Prefix)

	if endpoint == "" || bucket == "" || cfg.AccessKeyFile == "" || cfg.SecretKeyFile == "" {
		return nil, fmt.Errorf("missing blob configuration")
	}

	accessKey, err := config.ReadSecretFile(cfg.AccessKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read blob access key: %w", err)
	}
	secretKey, err := config.ReadSecretFile(cfg.SecretKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read blob secret key: %w", err)
	}

	host, secure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	if prefix == "" {
		prefix = "achub/snapshots"
	}

	return &S3Store{client: client, bucket: bucket, prefix: prefix, now: time.Now}, nil
}

func (s *S3Store) Save(ctx context.Context, plugin string, data []byte) error {
	stamp := s.now().UTC().Format("20060102T150405Z")
	for _, key := range []string{s.key(plugin, stamp+".json"), s.key(plugin, "latest.json")} {
		reader := bytes.NewReader(data)
		_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(reader.Len()), minio.PutObjectOptions{
			ContentType: "application/json",
		})
		if err != nil {
			return s.wrapError(err)
		}
	}
	return nil
}

func (s *S3Store) LoadLatest(ctx context.Context, plugin string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(plugin, "latest.json"), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer obj.Close()

	if _, err := obj.Stat(); err != nil {
		return nil, s.wrapError(err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func (s *S3Store) key(plugin, name string) string {
	return path.Join(s.prefix, plugin, name)
}

func (s *S3Store) wrapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" {
		return ErrSnapshotNotFound
	}
	return err
}

func parseEndpoint(raw string) (string, bool, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, fmt.Errorf("parse endpoint: %w", err)
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint: %q", raw)
		}
		return u.Host, u.Scheme == "https", nil
	}
	return raw, true, nil
}
