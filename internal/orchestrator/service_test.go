package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/blobstore"
	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/event"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
	"github.com/psavelis/safelynx/internal/eventbus"
	"github.com/psavelis/safelynx/internal/matcher"
)

// fakeProfileRepo is an in-memory ProfileRepository good enough to drive
// the orchestrator's pass 1/pass 2 decisions under test.
type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entity.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*entity.Profile)}
}

func (r *fakeProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) FindAllActive(ctx context.Context) ([]entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) FindByEmbedding(ctx context.Context, embedding valueobject.FaceEmbedding, threshold float32) ([]repository.ProfileMatch, error) {
	return nil, nil
}

func (r *fakeProfileRepo) Save(ctx context.Context, profile *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, profile *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[profile.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
	return nil
}

func (r *fakeProfileRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.profiles)), nil
}

func (r *fakeProfileRepo) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.profiles, id)
}

// fakeSightingRepo records every sighting saved against it.
type fakeSightingRepo struct {
	mu       sync.Mutex
	saved    []entity.Sighting
}

func (r *fakeSightingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Sighting, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeSightingRepo) FindByProfile(ctx context.Context, profileID uuid.UUID, limit int64) ([]entity.Sighting, error) {
	return nil, nil
}
func (r *fakeSightingRepo) FindInRange(ctx context.Context, start, end time.Time, limit int64) ([]entity.Sighting, error) {
	return nil, nil
}
func (r *fakeSightingRepo) Save(ctx context.Context, sighting *entity.Sighting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, *sighting)
	return nil
}
func (r *fakeSightingRepo) LocationHeatmap(ctx context.Context) ([]repository.LocationCount, error) {
	return nil, nil
}
func (r *fakeSightingRepo) Count(ctx context.Context) (int64, error) { return 0, nil }
func (r *fakeSightingRepo) CountByProfile(ctx context.Context, profileID uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *fakeSightingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

// noopBlobStore accepts every write without touching a filesystem.
type noopBlobStore struct{}

func (noopBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}
func (noopBlobStore) Get(ctx context.Context, key string) ([]byte, error)   { return nil, nil }
func (noopBlobStore) Delete(ctx context.Context, key string) error         { return nil }
func (noopBlobStore) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }
func (noopBlobStore) Size(ctx context.Context, key string) (int64, error)  { return 0, nil }

var _ blobstore.Store = noopBlobStore{}

func embeddingOf(t *testing.T, value float32) valueobject.FaceEmbedding {
	t.Helper()
	values := make([]float32, valueobject.EmbeddingDimension)
	for i := range values {
		values[i] = value
	}
	e, err := valueobject.NewFaceEmbedding(values)
	if err != nil {
		t.Fatalf("NewFaceEmbedding: %v", err)
	}
	return e
}

func newTestService(t *testing.T, cfg Config) (*Service, *fakeProfileRepo, *fakeSightingRepo, *matcher.Cache, *eventbus.Bus) {
	t.Helper()
	profiles := newFakeProfileRepo()
	sightings := &fakeSightingRepo{}
	cache := matcher.New(profiles, cfg.MatchThreshold)
	bus := eventbus.New()
	svc := New(profiles, sightings, cache, bus, noopBlobStore{}, nil, cfg)
	return svc, profiles, sightings, cache, bus
}

func collectEvents(bus *eventbus.Bus) (*eventbus.Subscription, func() []event.DomainEvent) {
	sub := bus.Subscribe()
	return sub, func() []event.DomainEvent {
		var out []event.DomainEvent
		for {
			select {
			case e := <-sub.Events():
				out = append(out, e)
			default:
				return out
			}
		}
	}
}

func frameWith(cameraID uuid.UUID, frameNumber uint64, detections ...entity.Detection) *entity.FrameDetections {
	f := entity.NewFrameDetections(cameraID, frameNumber, time.Now().UnixMilli())
	for _, d := range detections {
		f.AddDetection(d)
	}
	return f
}

// Scenario 1 (§8): new-face path — empty cache, one high-confidence
// detection with an embedding. Expect exactly one profile created,
// Unknown classification, ProfileCreated before FaceDetected, no
// ProfileSighted, and the cache grows by one.
func TestProcessFrameNewFacePath(t *testing.T) {
	cfg := Config{MinConfidence: 0.7, MatchThreshold: 0.6, SightingCooldownSecs: 30}
	svc, profiles, sightings, cache, bus := newTestService(t, cfg)

	sub, drain := collectEvents(bus)
	defer bus.Unsubscribe(sub)

	e := embeddingOf(t, 0.1)
	det := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.9)
	det.SetEmbedding(e)

	cameraID := uuid.New()
	frame := frameWith(cameraID, 1, det)

	created, err := svc.ProcessFrame(context.Background(), frame, nil)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created profile, got %d", len(created))
	}

	p, err := profiles.FindByID(context.Background(), created[0])
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.Classification != entity.ClassificationUnknown {
		t.Fatalf("expected Unknown classification, got %v", p.Classification)
	}
	if cache.CacheSize() != 1 {
		t.Fatalf("expected cache size 1, got %d", cache.CacheSize())
	}
	if sightings.count() != 0 {
		t.Fatalf("expected no sightings for a new profile, got %d", sightings.count())
	}

	events := drain()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (ProfileCreated, FaceDetected), got %d: %#v", len(events), events)
	}
	if _, ok := events[0].(event.ProfileCreated); !ok {
		t.Fatalf("expected first event ProfileCreated, got %T", events[0])
	}
	if _, ok := events[1].(event.FaceDetected); !ok {
		t.Fatalf("expected second event FaceDetected, got %T", events[1])
	}
}

// Scenario 2 (§8): match path with cooldown. A cached profile is matched
// twice within the cooldown window; only the first call records a
// sighting and publishes ProfileSighted.
func TestProcessFrameMatchPathRespectsCooldown(t *testing.T) {
	cfg := Config{MinConfidence: 0.7, MatchThreshold: 0.6, SightingCooldownSecs: 30}
	svc, profiles, sightings, cache, bus := newTestService(t, cfg)

	sub, drain := collectEvents(bus)
	defer bus.Unsubscribe(sub)

	e0 := embeddingOf(t, 0.2)
	existing := entity.NewProfile(e0, nil)
	if err := profiles.Save(context.Background(), existing); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	cache.Add(existing.ID, e0)

	cameraID := uuid.New()

	detA := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.95)
	detA.SetEmbedding(e0)
	frameA := frameWith(cameraID, 1, detA)

	createdA, err := svc.ProcessFrame(context.Background(), frameA, nil)
	if err != nil {
		t.Fatalf("ProcessFrame A: %v", err)
	}
	if len(createdA) != 0 {
		t.Fatalf("expected no newly created profiles, got %d", len(createdA))
	}
	if sightings.count() != 1 {
		t.Fatalf("expected 1 sighting after frame A, got %d", sightings.count())
	}

	eventsA := drain()
	sawFaceDetected, sawProfileSighted := false, false
	faceDetectedIdx, profileSightedIdx := -1, -1
	for i, ev := range eventsA {
		switch ev.(type) {
		case event.FaceDetected:
			sawFaceDetected = true
			faceDetectedIdx = i
		case event.ProfileSighted:
			sawProfileSighted = true
			profileSightedIdx = i
		}
	}
	if !sawFaceDetected || !sawProfileSighted {
		t.Fatalf("expected both FaceDetected and ProfileSighted, got %#v", eventsA)
	}
	if faceDetectedIdx > profileSightedIdx {
		t.Fatalf("expected FaceDetected before ProfileSighted")
	}

	detB := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.95)
	detB.SetEmbedding(e0)
	frameB := frameWith(cameraID, 2, detB)

	if _, err := svc.ProcessFrame(context.Background(), frameB, nil); err != nil {
		t.Fatalf("ProcessFrame B: %v", err)
	}
	if sightings.count() != 1 {
		t.Fatalf("expected still 1 sighting after frame B (cooldown), got %d", sightings.count())
	}

	eventsB := drain()
	for _, ev := range eventsB {
		if _, ok := ev.(event.ProfileSighted); ok {
			t.Fatalf("did not expect a ProfileSighted during the cooldown window")
		}
	}
}

// Scenario 3 (§8): threshold gate. A detection below min_confidence is
// dropped entirely; one at or above it proceeds.
func TestProcessFrameDropsLowConfidenceDetections(t *testing.T) {
	cfg := Config{MinConfidence: 0.7, MatchThreshold: 0.6, SightingCooldownSecs: 30}
	svc, _, _, cache, bus := newTestService(t, cfg)

	sub, drain := collectEvents(bus)
	defer bus.Unsubscribe(sub)

	low := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.5)
	low.SetEmbedding(embeddingOf(t, 0.3))

	high := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.8)
	high.SetEmbedding(embeddingOf(t, 0.4))

	frame := frameWith(uuid.New(), 1, low, high)

	created, err := svc.ProcessFrame(context.Background(), frame, nil)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected exactly 1 created profile (from the high-confidence detection), got %d", len(created))
	}
	if cache.CacheSize() != 1 {
		t.Fatalf("expected cache size 1, got %d", cache.CacheSize())
	}

	events := drain()
	if len(events) != 2 {
		t.Fatalf("expected exactly 2 events for the surviving detection, got %d: %#v", len(events), events)
	}
}

// Scenario 6 (§8): degraded mode without an embedding. A profile is
// created with a zero embedding and is NOT inserted into the matcher
// cache, so later real-embedding frames never spuriously match it.
func TestProcessFrameDegradedModeSkipsCacheInsertion(t *testing.T) {
	cfg := Config{MinConfidence: 0.7, MatchThreshold: 0.6, SightingCooldownSecs: 30}
	svc, _, _, cache, bus := newTestService(t, cfg)

	sub, drain := collectEvents(bus)
	defer bus.Unsubscribe(sub)

	det := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.85)
	frame := frameWith(uuid.New(), 1, det)

	created, err := svc.ProcessFrame(context.Background(), frame, nil)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created profile, got %d", len(created))
	}
	if cache.CacheSize() != 0 {
		t.Fatalf("expected the degraded-mode profile to stay out of the matcher cache, got size %d", cache.CacheSize())
	}

	events := drain()
	sawCreated := false
	for _, ev := range events {
		if _, ok := ev.(event.ProfileCreated); ok {
			sawCreated = true
		}
	}
	if !sawCreated {
		t.Fatalf("expected a ProfileCreated event even in degraded mode")
	}

	// A second frame with a real embedding must not match the
	// zero-embedding profile created above.
	det2 := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.9)
	e := embeddingOf(t, 0.0001)
	det2.SetEmbedding(e)
	frame2 := frameWith(uuid.New(), 2, det2)

	created2, err := svc.ProcessFrame(context.Background(), frame2, nil)
	if err != nil {
		t.Fatalf("ProcessFrame 2: %v", err)
	}
	if len(created2) != 1 || created2[0] == created[0] {
		t.Fatalf("expected a distinct new profile for the real-embedding detection, got %#v", created2)
	}
}

// Concurrent deletion race (§9 Open Question 2): if the matched profile
// vanishes from the repository between the matcher hit and the lookup,
// the detection is silently skipped rather than erroring the frame.
func TestProcessFrameSkipsDetectionWhenMatchedProfileVanished(t *testing.T) {
	cfg := Config{MinConfidence: 0.7, MatchThreshold: 0.6, SightingCooldownSecs: 30}
	svc, profiles, _, cache, bus := newTestService(t, cfg)

	sub, drain := collectEvents(bus)
	defer bus.Unsubscribe(sub)

	e0 := embeddingOf(t, 0.2)
	existing := entity.NewProfile(e0, nil)
	if err := profiles.Save(context.Background(), existing); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	cache.Add(existing.ID, e0)
	profiles.remove(existing.ID)

	det := entity.NewDetection(valueobject.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, 0.9)
	det.SetEmbedding(e0)
	frame := frameWith(uuid.New(), 1, det)

	created, err := svc.ProcessFrame(context.Background(), frame, nil)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("expected no created profiles, got %d", len(created))
	}

	events := drain()
	if len(events) != 0 {
		t.Fatalf("expected no events for a vanished match, got %#v", events)
	}
}
