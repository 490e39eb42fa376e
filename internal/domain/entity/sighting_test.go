package entity

import (
	"testing"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

func TestNewSightingGeneratesUniqueID(t *testing.T) {
	bbox := valueobject.NewBoundingBox(10, 20, 100, 100)
	s1 := NewSighting(uuid.New(), uuid.New(), "path", bbox, 0.9, nil)
	s2 := NewSighting(uuid.New(), uuid.New(), "path", bbox, 0.9, nil)
	if s1.ID == s2.ID {
		t.Fatal("expected unique ids")
	}
}

func TestLinkToRecordingSetsFields(t *testing.T) {
	bbox := valueobject.NewBoundingBox(10, 20, 100, 100)
	s := NewSighting(uuid.New(), uuid.New(), "path", bbox, 0.9, nil)
	recordingID := uuid.New()

	s.LinkToRecording(recordingID, 5000)

	if s.RecordingID == nil || *s.RecordingID != recordingID {
		t.Fatal("expected recording id to be set")
	}
	if s.RecordingTimestampMs == nil || *s.RecordingTimestampMs != 5000 {
		t.Fatal("expected recording timestamp to be set")
	}
}
