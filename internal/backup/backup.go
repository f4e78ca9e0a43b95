// Package backup snapshots the SQLite database, encrypts the copy, and
// uploads it to S3-compatible storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3         S3Config
	DBPath     string
	Passphrase string
}

// Manager creates and retrieves encrypted database backups.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	logger  *slog.Logger
}

func NewManager(cfg Config, db *sql.DB, backups *store.BackupStore, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:     cfg,
		db:      db,
		backups: backups,
		logger:  logger.With("component", "backup"),
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" && cfg.Passphrase != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Configured returns true if storage credentials and a passphrase are set.
func (m *Manager) Configured() bool {
	return m.client != nil
}

// Run checkpoints the WAL, encrypts a copy of the database, uploads it,
// and records the result. Only one backup runs at a time.
func (m *Manager) Run(ctx context.Context) (*model.Backup, error) {
	if m.client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	objectKey := fmt.Sprintf("backups/%s/%s.db.enc", time.Now().UTC().Format("2006-01-02"), uuid.NewString())

	encrypted, err := m.snapshot(ctx)
	if err != nil {
		if _, recErr := m.backups.Record(objectKey, 0, "failed", err.Error()); recErr != nil {
			m.logger.Error("record failed backup", "error", recErr)
		}
		return nil, err
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.S3.Bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(encrypted),
		ContentLength: aws.Int64(int64(len(encrypted))),
	})
	if err != nil {
		if _, recErr := m.backups.Record(objectKey, 0, "failed", err.Error()); recErr != nil {
			m.logger.Error("record failed backup", "error", recErr)
		}
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	record, err := m.backups.Record(objectKey, int64(len(encrypted)), "completed", "")
	if err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}

	m.logger.Info("backup complete", "object_key", objectKey, "size_bytes", len(encrypted))
	return record, nil
}

func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return nil, fmt.Errorf("wal checkpoint: %w", err)
	}

	plaintext, err := os.ReadFile(m.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("read database: %w", err)
	}

	encrypted, err := Encrypt(plaintext, m.cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return encrypted, nil
}

// Download streams an encrypted backup object from storage.
func (m *Manager) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if m.client == nil {
		return nil, fmt.Errorf("backup not configured")
	}

	result, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.S3.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	return result.Body, nil
}
