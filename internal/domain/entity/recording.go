package entity

import (
	"time"

	"github.com/google/uuid"
)

// RecordingStatus tracks the lifecycle of a video segment.
type RecordingStatus string

const (
	RecordingStatusRecording  RecordingStatus = "recording"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusInterrupted RecordingStatus = "interrupted"
	RecordingStatusDeleting   RecordingStatus = "deleting"
)

// Recording is a video segment captured by one camera.
type Recording struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CameraID       uuid.UUID       `json:"camera_id" db:"camera_id"`
	FilePath       string          `json:"file_path" db:"file_path"`
	FileSizeBytes  int64           `json:"file_size_bytes" db:"file_size_bytes"`
	DurationMs     int64           `json:"duration_ms" db:"duration_ms"`
	FrameCount     int64           `json:"frame_count" db:"frame_count"`
	Status         RecordingStatus `json:"status" db:"status"`
	HasDetections  bool            `json:"has_detections" db:"has_detections"`
	StartedAt      time.Time       `json:"started_at" db:"started_at"`
	EndedAt        *time.Time      `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// NewRecording starts a new in-progress recording segment.
func NewRecording(cameraID uuid.UUID, filePath string) *Recording {
	now := time.Now().UTC()
	return &Recording{
		ID:        uuid.New(),
		CameraID:  cameraID,
		FilePath:  filePath,
		Status:    RecordingStatusRecording,
		StartedAt: now,
		CreatedAt: now,
	}
}

// UpdateStats refreshes the running file size, duration and frame count
// while the recording is still in progress.
func (r *Recording) UpdateStats(fileSizeBytes, durationMs, frameCount int64) {
	r.FileSizeBytes = fileSizeBytes
	r.DurationMs = durationMs
	r.FrameCount = frameCount
}

// MarkHasDetections flags that at least one face was detected during
// this segment.
func (r *Recording) MarkHasDetections() {
	r.HasDetections = true
}

// Complete finalizes the recording with its closing statistics.
func (r *Recording) Complete(fileSizeBytes, durationMs, frameCount int64) {
	r.FileSizeBytes = fileSizeBytes
	r.DurationMs = durationMs
	r.FrameCount = frameCount
	r.Status = RecordingStatusCompleted
	now := time.Now().UTC()
	r.EndedAt = &now
}

// Interrupt marks the segment as having ended abnormally (camera loss,
// process shutdown).
func (r *Recording) Interrupt() {
	r.Status = RecordingStatusInterrupted
	now := time.Now().UTC()
	r.EndedAt = &now
}

// MarkForDeletion transitions the recording into the deleting state ahead
// of quota-driven cleanup.
func (r *Recording) MarkForDeletion() {
	r.Status = RecordingStatusDeleting
}

// IsActive reports whether the segment is still being written to.
func (r *Recording) IsActive() bool {
	return r.Status == RecordingStatusRecording
}
