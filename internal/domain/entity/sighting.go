package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// Sighting records when and where a profile was observed. Every field
// except the recording link is immutable once created.
type Sighting struct {
	ID                   uuid.UUID                `json:"id" db:"id"`
	ProfileID            uuid.UUID                `json:"profile_id" db:"profile_id"`
	CameraID             uuid.UUID                `json:"camera_id" db:"camera_id"`
	SnapshotPath         string                   `json:"snapshot_path" db:"snapshot_path"`
	BoundingBox          valueobject.BoundingBox  `json:"bounding_box" db:"bounding_box"`
	Confidence           float32                  `json:"confidence" db:"confidence"`
	Location             *valueobject.GeoLocation `json:"location,omitempty" db:"location"`
	RecordingID          *uuid.UUID               `json:"recording_id,omitempty" db:"recording_id"`
	RecordingTimestampMs *int64                   `json:"recording_timestamp_ms,omitempty" db:"recording_timestamp_ms"`
	DetectedAt           time.Time                `json:"detected_at" db:"detected_at"`
}

// NewSighting creates a sighting record for a matched face.
func NewSighting(
	profileID uuid.UUID,
	cameraID uuid.UUID,
	snapshotPath string,
	boundingBox valueobject.BoundingBox,
	confidence float32,
	location *valueobject.GeoLocation,
) *Sighting {
	return &Sighting{
		ID:           uuid.New(),
		ProfileID:    profileID,
		CameraID:     cameraID,
		SnapshotPath: snapshotPath,
		BoundingBox:  boundingBox,
		Confidence:   confidence,
		Location:     location,
		DetectedAt:   time.Now().UTC(),
	}
}

// LinkToRecording associates the sighting with the recording segment that
// captured it, at the given offset from the segment's start.
func (s *Sighting) LinkToRecording(recordingID uuid.UUID, timestampMs int64) {
	s.RecordingID = &recordingID
	s.RecordingTimestampMs = &timestampMs
}
