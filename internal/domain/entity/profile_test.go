package entity

import (
	"testing"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

func testProfileEmbedding(t *testing.T) valueobject.FaceEmbedding {
	t.Helper()
	values := make([]float32, valueobject.EmbeddingDimension)
	for i := range values {
		values[i] = 0.1
	}
	e, err := valueobject.NewFaceEmbedding(values)
	if err != nil {
		t.Fatalf("NewFaceEmbedding: %v", err)
	}
	return e
}

func TestNewProfileHasUnknownClassification(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	if p.Classification != ClassificationUnknown {
		t.Fatalf("expected unknown, got %v", p.Classification)
	}
}

func TestNewProfileHasSightingCountOfOne(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	if p.SightingCount != 1 {
		t.Fatalf("expected 1, got %v", p.SightingCount)
	}
}

func TestRecordSightingIncrementsCount(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	p.RecordSighting()
	if p.SightingCount != 2 {
		t.Fatalf("expected 2, got %v", p.SightingCount)
	}
}

func TestDisplayNameShowsIDPrefixWhenUnnamed(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	name := p.DisplayName()
	if len(name) < len("Unknown #") || name[:len("Unknown #")] != "Unknown #" {
		t.Fatalf("expected placeholder name, got %q", name)
	}
}

func TestDisplayNameShowsNameWhenSet(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	name := "John"
	p.SetName(&name)
	if p.DisplayName() != "John" {
		t.Fatalf("expected John, got %q", p.DisplayName())
	}
}

func TestAddTagPreventsDuplicates(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	tag := valueobject.NewProfileTag("family")
	p.AddTag(tag)
	p.AddTag(tag)
	if len(p.Tags) != 1 {
		t.Fatalf("expected 1 tag, got %d", len(p.Tags))
	}
}

func TestRemoveTagDropsMatchingTag(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	tag := valueobject.NewProfileTag("family")
	p.AddTag(tag)
	p.RemoveTag(tag)
	if len(p.Tags) != 0 {
		t.Fatalf("expected 0 tags, got %d", len(p.Tags))
	}
}

func TestDeactivateSetsInactiveFlag(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	p.Deactivate()
	if p.IsActive {
		t.Fatal("expected profile to be inactive")
	}
}

func TestReactivateRestoresActiveFlag(t *testing.T) {
	p := NewProfile(testProfileEmbedding(t), nil)
	p.Deactivate()
	p.Reactivate()
	if !p.IsActive {
		t.Fatal("expected profile to be active again")
	}
}
