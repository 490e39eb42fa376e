// Package repository declares the persistence contracts the orchestrator,
// recording service and storage manager depend on. Concrete adapters live
// under internal/storage/postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// ErrNotFound is returned (wrapped) when a lookup finds no matching row.
var ErrNotFound = errors.New("entity not found")

// NotFoundError reports which entity and id were missing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// ConstraintError reports a violated database constraint (unique key,
// foreign key, check).
type ConstraintError struct {
	Detail string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation: %s", e.Detail)
}

// ProfileMatch pairs a candidate profile with its embedding distance from
// the query vector.
type ProfileMatch struct {
	Profile  entity.Profile
	Distance float32
}

// ProfileRepository persists identified individuals.
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindAllActive(ctx context.Context) ([]entity.Profile, error)
	FindByEmbedding(ctx context.Context, embedding valueobject.FaceEmbedding, threshold float32) ([]ProfileMatch, error)
	Save(ctx context.Context, profile *entity.Profile) error
	Update(ctx context.Context, profile *entity.Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// LocationCount is one bucket of the sighting heatmap: a location and how
// many sightings occurred there.
type LocationCount struct {
	Latitude  float64
	Longitude float64
	Count     int64
}

// SightingRepository persists profile observations.
type SightingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Sighting, error)
	FindByProfile(ctx context.Context, profileID uuid.UUID, limit int64) ([]entity.Sighting, error)
	FindInRange(ctx context.Context, start, end time.Time, limit int64) ([]entity.Sighting, error)
	Save(ctx context.Context, sighting *entity.Sighting) error
	LocationHeatmap(ctx context.Context) ([]LocationCount, error)
	Count(ctx context.Context) (int64, error)
	CountByProfile(ctx context.Context, profileID uuid.UUID) (int64, error)
}

// CameraRepository persists configured video sources.
type CameraRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Camera, error)
	FindAll(ctx context.Context) ([]entity.Camera, error)
	FindEnabled(ctx context.Context) ([]entity.Camera, error)
	Save(ctx context.Context, camera *entity.Camera) error
	Update(ctx context.Context, camera *entity.Camera) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecordingRepository persists video segments.
type RecordingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Recording, error)
	FindAll(ctx context.Context, limit int64) ([]entity.Recording, error)
	FindByCamera(ctx context.Context, cameraID uuid.UUID, limit int64) ([]entity.Recording, error)
	FindWithDetections(ctx context.Context, limit int64) ([]entity.Recording, error)
	Save(ctx context.Context, recording *entity.Recording) error
	Update(ctx context.Context, recording *entity.Recording) error
	Delete(ctx context.Context, id uuid.UUID) error
	TotalStorageBytes(ctx context.Context) (int64, error)
	FindOldest(ctx context.Context, limit int64) ([]entity.Recording, error)
}

// SettingsRepository persists the single application settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (entity.Settings, error)
	Save(ctx context.Context, settings entity.Settings) error
}
