// Package event defines the domain events published over the in-process
// event bus (and relayed to the EVENTS message stream for durable
// consumers).
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// DomainEvent is any occurrence worth broadcasting to subscribers.
type DomainEvent interface {
	Timestamp() time.Time
	Type() string
}

// ProfileCreated fires when a new profile is created from an unknown face.
type ProfileCreated struct {
	ProfileID     uuid.UUID
	ThumbnailPath *string
	CameraID      uuid.UUID
	Location      *valueobject.GeoLocation
	At            time.Time
}

func (e ProfileCreated) Timestamp() time.Time { return e.At }
func (e ProfileCreated) Type() string         { return "profile_created" }

// FaceDetected fires for every face found in a frame, matched or not.
type FaceDetected struct {
	CameraID       uuid.UUID
	FrameNumber    uint64
	BoundingBox    valueobject.BoundingBox
	Confidence     float32
	ProfileID      *uuid.UUID
	ProfileName    *string
	Classification *entity.ProfileClassification
	At             time.Time
}

func (e FaceDetected) Timestamp() time.Time { return e.At }
func (e FaceDetected) Type() string         { return "face_detected" }

// ProfileSighted fires when a detection is matched to a known profile.
type ProfileSighted struct {
	SightingID     uuid.UUID
	ProfileID      uuid.UUID
	ProfileName    *string
	Classification entity.ProfileClassification
	CameraID       uuid.UUID
	Location       *valueobject.GeoLocation
	Confidence     float32
	At             time.Time
}

func (e ProfileSighted) Timestamp() time.Time { return e.At }
func (e ProfileSighted) Type() string         { return "profile_sighted" }

// RecordingStarted fires when a camera begins a new recording segment.
type RecordingStarted struct {
	RecordingID uuid.UUID
	CameraID    uuid.UUID
	At          time.Time
}

func (e RecordingStarted) Timestamp() time.Time { return e.At }
func (e RecordingStarted) Type() string         { return "recording_started" }

// RecordingEnded fires when a recording segment is finalized.
type RecordingEnded struct {
	RecordingID   uuid.UUID
	CameraID      uuid.UUID
	DurationMs    int64
	FileSizeBytes int64
	HasDetections bool
	At            time.Time
}

func (e RecordingEnded) Timestamp() time.Time { return e.At }
func (e RecordingEnded) Type() string         { return "recording_ended" }

// CameraStatusChanged fires when a camera transitions between connection
// states.
type CameraStatusChanged struct {
	CameraID   uuid.UUID
	CameraName string
	Status     string
	At         time.Time
}

func (e CameraStatusChanged) Timestamp() time.Time { return e.At }
func (e CameraStatusChanged) Type() string         { return "camera_status_changed" }

// SettingsChanged fires when one settings group is updated.
type SettingsChanged struct {
	Category string
	At       time.Time
}

func (e SettingsChanged) Timestamp() time.Time { return e.At }
func (e SettingsChanged) Type() string         { return "settings_changed" }
