// Package storagequota enforces a total-bytes budget across recordings
// and snapshots, deleting the oldest recordings first when the budget is
// exceeded.
package storagequota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/psavelis/safelynx/internal/blobstore"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/observability"
)

const (
	bytesPerGB           = 1024 * 1024 * 1024
	defaultMaxStorageGB  = 100
	defaultCleanupTarget = 0.8
	snapshotPrefix       = "snapshots/"
	recordingKeyPrefix   = "recordings/"
	firstBatchSize       = 10
	laterBatchSize       = 50
)

// Config tunes the storage quota and cleanup behavior.
type Config struct {
	MaxStorageBytes     int64
	AutoCleanup         bool
	CleanupTargetFraction float64
}

// DefaultConfig mirrors the original manager's 100GB/80% defaults.
func DefaultConfig() Config {
	return Config{
		MaxStorageBytes:       defaultMaxStorageGB * bytesPerGB,
		AutoCleanup:           true,
		CleanupTargetFraction: defaultCleanupTarget,
	}
}

// Stats summarizes current storage usage.
type Stats struct {
	TotalBytes      int64
	RecordingsBytes int64
	SnapshotsBytes  int64
	MaxBytes        int64
	UsagePercent    float64
}

// Manager tracks total persisted bytes across recordings and snapshots
// and deletes the oldest recordings first when over budget.
type Manager struct {
	recordings repository.RecordingRepository
	blobs      blobstore.Store

	mu     sync.RWMutex
	config Config
}

// New wires a Manager against its repository and blob store.
func New(recordings repository.RecordingRepository, blobs blobstore.Store, cfg Config) *Manager {
	return &Manager{recordings: recordings, blobs: blobs, config: cfg}
}

// UpdateConfig replaces the active tuning.
func (m *Manager) UpdateConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

func (m *Manager) currentConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Stats computes current usage: recordings bytes from the repository,
// snapshot bytes by summing every object under the snapshots prefix.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	cfg := m.currentConfig()

	recordingsBytes, err := m.recordings.TotalStorageBytes(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("total recordings bytes: %w", err)
	}

	snapshotsBytes, err := m.snapshotsSize(ctx)
	if err != nil {
		slog.Warn("failed to size snapshots, treating as zero", "error", err)
		snapshotsBytes = 0
	}

	total := recordingsBytes + snapshotsBytes
	usage := float64(0)
	if cfg.MaxStorageBytes > 0 {
		usage = float64(total) / float64(cfg.MaxStorageBytes) * 100
	}

	return Stats{
		TotalBytes:      total,
		RecordingsBytes: recordingsBytes,
		SnapshotsBytes:  snapshotsBytes,
		MaxBytes:        cfg.MaxStorageBytes,
		UsagePercent:    usage,
	}, nil
}

func (m *Manager) snapshotsSize(ctx context.Context) (int64, error) {
	keys, err := m.blobs.List(ctx, snapshotPrefix)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, key := range keys {
		size, err := m.blobs.Size(ctx, key)
		if err != nil {
			slog.Warn("failed to stat snapshot, skipping", "key", key, "error", err)
			continue
		}
		total += size
	}
	return total, nil
}

// CheckAndCleanup runs cleanup if auto-cleanup is enabled and usage
// exceeds the configured maximum. Returns whether cleanup ran.
func (m *Manager) CheckAndCleanup(ctx context.Context) (bool, error) {
	cfg := m.currentConfig()
	if !cfg.AutoCleanup {
		return false, nil
	}

	stats, err := m.Stats(ctx)
	if err != nil {
		return false, err
	}

	observability.StorageUsagePercent.Set(stats.UsagePercent)

	if stats.TotalBytes <= cfg.MaxStorageBytes {
		return false, nil
	}

	slog.Info("storage limit exceeded, starting cleanup", "usage_percent", stats.UsagePercent)

	targetBytes := int64(float64(cfg.MaxStorageBytes) * cfg.CleanupTargetFraction)
	bytesToFree := stats.TotalBytes - targetBytes

	if err := m.cleanupRecordings(ctx, bytesToFree); err != nil {
		return false, err
	}
	return true, nil
}

// cleanupRecordings deletes the oldest recordings, in a first batch of
// firstBatchSize and then batches of laterBatchSize, until bytesToFree
// has been freed or there is nothing more to delete.
func (m *Manager) cleanupRecordings(ctx context.Context, bytesToFree int64) error {
	var freed int64
	batchSize := int64(firstBatchSize)

	for freed < bytesToFree {
		oldest, err := m.recordings.FindOldest(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("find oldest recordings: %w", err)
		}

		if len(oldest) == 0 {
			slog.Warn("no more recordings to delete", "freed_bytes", freed)
			break
		}

		for i := range oldest {
			if freed >= bytesToFree {
				break
			}

			rec := oldest[i]
			freed += rec.FileSizeBytes
			m.deleteRecordingFile(ctx, recordingKeyPrefix+rec.FilePath)

			if err := m.recordings.Delete(ctx, rec.ID); err != nil {
				slog.Warn("failed to delete recording row", "recording_id", rec.ID, "error", err)
				continue
			}

			slog.Info("deleted recording", "recording_id", rec.ID, "bytes", rec.FileSizeBytes)
		}

		batchSize = laterBatchSize
	}

	slog.Info("cleanup complete", "freed_bytes", freed)
	return nil
}

// deleteRecordingFile best-effort deletes the physical blob for a
// recording; a missing file is not logged as an error.
func (m *Manager) deleteRecordingFile(ctx context.Context, filePath string) {
	if err := m.blobs.Delete(ctx, filePath); err != nil {
		slog.Warn("failed to delete recording file", "path", filePath, "error", err)
	}
}
