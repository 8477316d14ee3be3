package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/johnquangdev/meeting-copilot/internal/domain/entities"
	"github.com/johnquangdev/meeting-copilot/pkg/config"
)

const archivePrefix = "copilot-runs"

// RunArchive is the object body written for each successful run
type RunArchive struct {
	RunID      string                    `json:"run_id"`
	MeetingID  string                    `json:"meeting_id"`
	Mode       entities.RunMode          `json:"mode"`
	Provider   string                    `json:"provider"`
	Model      string                    `json:"model"`
	ArchivedAt time.Time                 `json:"archived_at"`
	Metadata   entities.RunMetadata      `json:"metadata"`
	Output     *entities.SanitizedOutput `json:"output"`
}

// MinIOClient archives sanitized run outputs in a private bucket
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
	}
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}
	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ArchiveKey is the object name of a run's archive
func ArchiveKey(run *entities.CopilotRun) string {
	return fmt.Sprintf("%s/%s/%s.json", archivePrefix, run.MeetingID, run.ID)
}

// Store uploads the run's sanitized output and returns the object key
func (m *MinIOClient) Store(ctx context.Context, run *entities.CopilotRun, out *entities.SanitizedOutput) (string, error) {
	body, err := json.Marshal(RunArchive{
		RunID:      run.ID.String(),
		MeetingID:  run.MeetingID.String(),
		Mode:       run.Mode,
		Provider:   run.Provider,
		Model:      run.Model,
		ArchivedAt: time.Now().UTC(),
		Metadata:   run.Metadata,
		Output:     out,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal run archive: %w", err)
	}

	key := ArchiveKey(run)
	_, err = m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run archive: %w", err)
	}
	return key, nil
}

// PresignedURL gets a time-limited download URL for an archived run
func (m *MinIOClient) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}
