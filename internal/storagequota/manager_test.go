package storagequota

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
)

// fakeRecordingRepo holds a fixed set of completed recordings, oldest
// first by CreatedAt, and tracks which ones get deleted.
type fakeRecordingRepo struct {
	mu         sync.Mutex
	recordings []entity.Recording
	totalBytes int64
	deleted    []uuid.UUID
}

func (r *fakeRecordingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Recording, error) {
	return nil, nil
}
func (r *fakeRecordingRepo) FindAll(ctx context.Context, limit int64) ([]entity.Recording, error) {
	return nil, nil
}
func (r *fakeRecordingRepo) FindByCamera(ctx context.Context, cameraID uuid.UUID, limit int64) ([]entity.Recording, error) {
	return nil, nil
}
func (r *fakeRecordingRepo) FindWithDetections(ctx context.Context, limit int64) ([]entity.Recording, error) {
	return nil, nil
}
func (r *fakeRecordingRepo) Save(ctx context.Context, recording *entity.Recording) error { return nil }
func (r *fakeRecordingRepo) Update(ctx context.Context, recording *entity.Recording) error {
	return nil
}
func (r *fakeRecordingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	for i, rec := range r.recordings {
		if rec.ID == id {
			r.totalBytes -= rec.FileSizeBytes
			r.recordings = append(r.recordings[:i], r.recordings[i+1:]...)
			break
		}
	}
	return nil
}
func (r *fakeRecordingRepo) TotalStorageBytes(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalBytes, nil
}
func (r *fakeRecordingRepo) FindOldest(ctx context.Context, limit int64) ([]entity.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sorted := make([]entity.Recording, len(r.recordings))
	copy(sorted, r.recordings)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	if int64(len(sorted)) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

type noopBlobStore struct{}

func (noopBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}
func (noopBlobStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (noopBlobStore) Delete(ctx context.Context, key string) error       { return nil }
func (noopBlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}
func (noopBlobStore) Size(ctx context.Context, key string) (int64, error) { return 0, nil }

const gb = int64(1024 * 1024 * 1024)

// Scenario 5 (§8): 120GB used, 100GB max, 80% cleanup target, 200
// completed 1GB recordings. Expect exactly 40 oldest deleted and a
// post-cleanup total of 80GB.
func TestCheckAndCleanupReclaimsExactShortfall(t *testing.T) {
	repo := &fakeRecordingRepo{}
	base := time.Now().UTC().Add(-200 * time.Hour)
	for i := 0; i < 200; i++ {
		rec := entity.Recording{
			ID:            uuid.New(),
			FileSizeBytes: gb,
			Status:        entity.RecordingStatusCompleted,
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		repo.recordings = append(repo.recordings, rec)
	}
	repo.totalBytes = 120 * gb

	mgr := New(repo, noopBlobStore{}, Config{
		MaxStorageBytes:       100 * gb,
		AutoCleanup:           true,
		CleanupTargetFraction: 0.8,
	})

	ran, err := mgr.CheckAndCleanup(context.Background())
	if err != nil {
		t.Fatalf("CheckAndCleanup: %v", err)
	}
	if !ran {
		t.Fatal("expected cleanup to run")
	}
	if len(repo.deleted) != 40 {
		t.Fatalf("expected exactly 40 recordings deleted, got %d", len(repo.deleted))
	}
	if repo.totalBytes != 80*gb {
		t.Fatalf("expected post-cleanup total of 80GB, got %d bytes", repo.totalBytes)
	}
}

// Below the limit, no cleanup runs.
func TestCheckAndCleanupNoopWhenUnderLimit(t *testing.T) {
	repo := &fakeRecordingRepo{totalBytes: 10 * gb}
	mgr := New(repo, noopBlobStore{}, Config{
		MaxStorageBytes:       100 * gb,
		AutoCleanup:           true,
		CleanupTargetFraction: 0.8,
	})

	ran, err := mgr.CheckAndCleanup(context.Background())
	if err != nil {
		t.Fatalf("CheckAndCleanup: %v", err)
	}
	if ran {
		t.Fatal("expected no cleanup below the limit")
	}
}

// Disabling auto-cleanup suppresses reclaim even over budget.
func TestCheckAndCleanupDisabled(t *testing.T) {
	repo := &fakeRecordingRepo{totalBytes: 200 * gb}
	mgr := New(repo, noopBlobStore{}, Config{
		MaxStorageBytes: 100 * gb,
		AutoCleanup:     false,
	})

	ran, err := mgr.CheckAndCleanup(context.Background())
	if err != nil {
		t.Fatalf("CheckAndCleanup: %v", err)
	}
	if ran {
		t.Fatal("expected cleanup to be suppressed when disabled")
	}
}
