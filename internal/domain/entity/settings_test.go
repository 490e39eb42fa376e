package entity

import "testing"

func TestDefaultDetectionConfidenceIsReasonable(t *testing.T) {
	s := DefaultDetectionSettings()
	if s.MinConfidence < 0.5 || s.MinConfidence > 1.0 {
		t.Fatalf("unexpected default confidence: %v", s.MinConfidence)
	}
}

func TestDefaultStorageIs100GB(t *testing.T) {
	s := DefaultRecordingSettings()
	const expected = 100 * int64(bytesPerGigabyte)
	if s.MaxStorageBytes != expected {
		t.Fatalf("expected %d, got %d", expected, s.MaxStorageBytes)
	}
}

func TestDefaultDisplayIsDarkMode(t *testing.T) {
	s := DefaultDisplaySettings()
	if !s.DarkMode {
		t.Fatal("expected dark mode by default")
	}
}

func TestNewSettingsPopulatesAllGroups(t *testing.T) {
	s := NewSettings()
	if s.Instance.InstanceID.String() == "" {
		t.Fatal("expected instance id to be set")
	}
	if s.Instance.SyncDatabases == nil {
		t.Fatal("expected sync databases slice to be initialized")
	}
}
