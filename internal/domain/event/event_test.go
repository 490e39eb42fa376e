package event

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestEventTypesAreDistinct(t *testing.T) {
	now := time.Now().UTC()
	events := []DomainEvent{
		ProfileCreated{ProfileID: uuid.New(), CameraID: uuid.New(), At: now},
		FaceDetected{CameraID: uuid.New(), At: now},
		ProfileSighted{SightingID: uuid.New(), ProfileID: uuid.New(), CameraID: uuid.New(), At: now},
		RecordingStarted{RecordingID: uuid.New(), CameraID: uuid.New(), At: now},
		RecordingEnded{RecordingID: uuid.New(), CameraID: uuid.New(), At: now},
		CameraStatusChanged{CameraID: uuid.New(), At: now},
		SettingsChanged{Category: "detection", At: now},
	}

	seen := make(map[string]bool)
	for _, e := range events {
		if seen[e.Type()] {
			t.Fatalf("duplicate event type: %s", e.Type())
		}
		seen[e.Type()] = true
		if e.Timestamp() != now {
			t.Fatalf("timestamp mismatch for %s", e.Type())
		}
	}
}
