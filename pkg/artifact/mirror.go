package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MirrorConfig holds object-store settings for artifact mirroring
type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// Enabled reports whether mirroring is configured at all.
func (c MirrorConfig) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// Mirror uploads the artifact set of a run to an object store. Mirroring is
// best-effort infrastructure around the run contract: it never influences
// whether a commit happens.
type Mirror struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMirror creates a mirror from config. Returns nil when mirroring is disabled.
func NewMirror(cfg MirrorConfig, logger *slog.Logger) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &Mirror{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// UploadRun copies every file of the artifact set under runs/<runID>/ in the
// bucket. Directory artifacts are walked; each upload is retried with
// exponential backoff before the whole mirror attempt is given up.
func (m *Mirror) UploadRun(ctx context.Context, runID, repoDir string) error {
	for _, a := range Set() {
		full := filepath.Join(repoDir, a.Path)
		if _, err := os.Stat(full); os.IsNotExist(err) {
			continue
		}
		if a.Kind == KindDir {
			err := filepath.WalkDir(full, func(p string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				rel, relErr := filepath.Rel(repoDir, p)
				if relErr != nil {
					return relErr
				}
				return m.upload(ctx, runID, rel, p)
			})
			if err != nil {
				return fmt.Errorf("mirror %s: %w", a.Path, err)
			}
			continue
		}
		if err := m.upload(ctx, runID, a.Path, full); err != nil {
			return fmt.Errorf("mirror %s: %w", a.Path, err)
		}
	}
	return nil
}

func (m *Mirror) upload(ctx context.Context, runID, rel, full string) error {
	key := path.Join("runs", runID, filepath.ToSlash(rel))
	contentType := mime.TypeByExtension(filepath.Ext(rel))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	op := func() error {
		_, err := m.client.FPutObject(ctx, m.bucket, key, full,
			minio.PutObjectOptions{ContentType: contentType})
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	m.logger.Debug("mirrored artifact", "key", key)
	return nil
}
