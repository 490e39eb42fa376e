package entity

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewRecordingIsRecordingStatus(t *testing.T) {
	r := NewRecording(uuid.New(), "/path/to/file.mp4")
	if r.Status != RecordingStatusRecording {
		t.Fatalf("expected recording status, got %v", r.Status)
	}
	if !r.IsActive() {
		t.Fatal("expected active")
	}
}

func TestCompleteSetsStatusAndEndTime(t *testing.T) {
	r := NewRecording(uuid.New(), "/path/to/file.mp4")
	r.Complete(1000, 5000, 150)

	if r.Status != RecordingStatusCompleted {
		t.Fatalf("expected completed, got %v", r.Status)
	}
	if r.IsActive() {
		t.Fatal("expected inactive")
	}
	if r.EndedAt == nil {
		t.Fatal("expected end time to be set")
	}
	if r.FileSizeBytes != 1000 || r.DurationMs != 5000 || r.FrameCount != 150 {
		t.Fatalf("unexpected stats: %+v", r)
	}
}

func TestMarkHasDetectionsSetsFlag(t *testing.T) {
	r := NewRecording(uuid.New(), "/path/to/file.mp4")
	if r.HasDetections {
		t.Fatal("expected no detections initially")
	}
	r.MarkHasDetections()
	if !r.HasDetections {
		t.Fatal("expected detections flag set")
	}
}

func TestInterruptSetsStatus(t *testing.T) {
	r := NewRecording(uuid.New(), "/path/to/file.mp4")
	r.Interrupt()
	if r.Status != RecordingStatusInterrupted {
		t.Fatalf("expected interrupted, got %v", r.Status)
	}
	if r.EndedAt == nil {
		t.Fatal("expected end time to be set")
	}
}
