// Package entity holds the mutable domain records the pipeline persists:
// profiles, sightings, recordings, cameras, settings and per-frame
// detections.
package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// ProfileClassification is the trust level assigned to a profile.
type ProfileClassification string

const (
	ClassificationTrusted ProfileClassification = "trusted"
	ClassificationKnown   ProfileClassification = "known"
	ClassificationUnknown ProfileClassification = "unknown"
	ClassificationFlagged ProfileClassification = "flagged"
)

// Profile is a unique individual identified by the system.
type Profile struct {
	ID             uuid.UUID                `json:"id" db:"id"`
	Name           *string                  `json:"name,omitempty" db:"name"`
	Classification ProfileClassification    `json:"classification" db:"classification"`
	Embedding      valueobject.FaceEmbedding `json:"embedding" db:"embedding"`
	ThumbnailPath  *string                  `json:"thumbnail_path,omitempty" db:"thumbnail_path"`
	Tags           []valueobject.ProfileTag `json:"tags" db:"tags"`
	Notes          *string                  `json:"notes,omitempty" db:"notes"`
	FirstSeenAt    time.Time                `json:"first_seen_at" db:"first_seen_at"`
	LastSeenAt     time.Time                `json:"last_seen_at" db:"last_seen_at"`
	SightingCount  int64                    `json:"sighting_count" db:"sighting_count"`
	IsActive       bool                     `json:"is_active" db:"is_active"`
	CreatedAt      time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at" db:"updated_at"`
}

// NewProfile creates a profile from a face detection that matched no
// existing profile.
// The sighting count starts at one: creation itself counts as the first
// sighting.
func NewProfile(embedding valueobject.FaceEmbedding, thumbnailPath *string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:             uuid.New(),
		Classification: ClassificationUnknown,
		Embedding:      embedding,
		ThumbnailPath:  thumbnailPath,
		Tags:           []valueobject.ProfileTag{},
		FirstSeenAt:    now,
		LastSeenAt:     now,
		SightingCount:  1,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// DisplayName returns the assigned name, or a short placeholder derived
// from the profile id when none has been set.
func (p *Profile) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return fmt.Sprintf("Unknown #%s", p.ID.String()[:8])
}

// SetName updates the profile's display name.
func (p *Profile) SetName(name *string) {
	p.Name = name
	p.UpdatedAt = time.Now().UTC()
}

// SetClassification updates the trust level.
func (p *Profile) SetClassification(classification ProfileClassification) {
	p.Classification = classification
	p.UpdatedAt = time.Now().UTC()
}

// AddTag adds a tag, ignoring duplicates.
func (p *Profile) AddTag(tag valueobject.ProfileTag) {
	for _, existing := range p.Tags {
		if existing == tag {
			return
		}
	}
	p.Tags = append(p.Tags, tag)
	p.UpdatedAt = time.Now().UTC()
}

// RemoveTag removes a tag if present.
func (p *Profile) RemoveTag(tag valueobject.ProfileTag) {
	filtered := p.Tags[:0]
	for _, existing := range p.Tags {
		if existing != tag {
			filtered = append(filtered, existing)
		}
	}
	p.Tags = filtered
	p.UpdatedAt = time.Now().UTC()
}

// SetNotes updates free-form notes.
func (p *Profile) SetNotes(notes *string) {
	p.Notes = notes
	p.UpdatedAt = time.Now().UTC()
}

// RecordSighting increments the sighting count and bumps last-seen.
func (p *Profile) RecordSighting() {
	p.SightingCount++
	now := time.Now().UTC()
	p.LastSeenAt = now
	p.UpdatedAt = now
}

// Deactivate soft-deletes the profile.
func (p *Profile) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
}

// Reactivate restores a previously deactivated profile.
func (p *Profile) Reactivate() {
	p.IsActive = true
	p.UpdatedAt = time.Now().UTC()
}

// UpdateEmbedding replaces the reference embedding with a better-quality
// sample.
func (p *Profile) UpdateEmbedding(embedding valueobject.FaceEmbedding) {
	p.Embedding = embedding
	p.UpdatedAt = time.Now().UTC()
}

// SetThumbnail updates the representative thumbnail path.
func (p *Profile) SetThumbnail(path string) {
	p.ThumbnailPath = &path
	p.UpdatedAt = time.Now().UTC()
}
