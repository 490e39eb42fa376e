package matcher

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

type stubProfileRepo struct {
	active []entity.Profile
}

func (s *stubProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return nil, repository.ErrNotFound
}
func (s *stubProfileRepo) FindAllActive(ctx context.Context) ([]entity.Profile, error) {
	return s.active, nil
}
func (s *stubProfileRepo) FindByEmbedding(ctx context.Context, embedding valueobject.FaceEmbedding, threshold float32) ([]repository.ProfileMatch, error) {
	return nil, nil
}
func (s *stubProfileRepo) Save(ctx context.Context, profile *entity.Profile) error   { return nil }
func (s *stubProfileRepo) Update(ctx context.Context, profile *entity.Profile) error { return nil }
func (s *stubProfileRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (s *stubProfileRepo) Count(ctx context.Context) (int64, error)                  { return int64(len(s.active)), nil }

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

func TestFindReturnsFalseWhenEmptyCache(t *testing.T) {
	c := New(&stubProfileRepo{}, 0.6)
	_, found := c.Find(embeddingOf(t, 0.5))
	if found {
		t.Fatal("expected no match")
	}
}

func TestFindReturnsBestMatchWithinThreshold(t *testing.T) {
	c := New(&stubProfileRepo{}, 0.6)
	profileID := uuid.New()
	c.Add(profileID, embeddingOf(t, 0.5))

	match, found := c.Find(embeddingOf(t, 0.5))
	if !found {
		t.Fatal("expected match")
	}
	if match.ProfileID != profileID {
		t.Fatalf("expected %v, got %v", profileID, match.ProfileID)
	}
}

func TestFindReturnsFalseWhenOutsideThreshold(t *testing.T) {
	c := New(&stubProfileRepo{}, 0.1)
	c.Add(uuid.New(), embeddingOf(t, 0.0))

	_, found := c.Find(embeddingOf(t, 1.0))
	if found {
		t.Fatal("expected no match")
	}
}

func TestRemoveDropsEntry(t *testing.T) {
	c := New(&stubProfileRepo{}, 0.6)
	profileID := uuid.New()
	c.Add(profileID, embeddingOf(t, 0.5))
	if c.CacheSize() != 1 {
		t.Fatalf("expected 1, got %d", c.CacheSize())
	}
	c.Remove(profileID)
	if c.CacheSize() != 0 {
		t.Fatalf("expected 0, got %d", c.CacheSize())
	}
}

func TestFindAllSortsByAscendingDistance(t *testing.T) {
	c := New(&stubProfileRepo{}, 5.0)
	near := uuid.New()
	far := uuid.New()
	c.Add(far, embeddingOf(t, 0.9))
	c.Add(near, embeddingOf(t, 0.5))

	matches := c.FindAll(embeddingOf(t, 0.5))
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ProfileID != near {
		t.Fatalf("expected nearest match first, got %v", matches[0].ProfileID)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Fatal("expected ascending distance order")
	}
}

func TestLoadPopulatesCacheFromActiveProfiles(t *testing.T) {
	p := entity.NewProfile(embeddingOf(t, 0.3), nil)
	repo := &stubProfileRepo{active: []entity.Profile{*p}}
	c := New(repo, 0.6)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CacheSize() != 1 {
		t.Fatalf("expected 1, got %d", c.CacheSize())
	}
}

func TestDistanceToConfidenceIsClamped(t *testing.T) {
	if got := distanceToConfidence(0, 0.6); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := distanceToConfidence(0.6, 0.6); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := distanceToConfidence(1.0, 0.6); got != 0 {
		t.Fatalf("expected clamped 0, got %v", got)
	}
}
