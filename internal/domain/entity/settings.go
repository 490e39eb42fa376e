package entity

import (
	"os"

	"github.com/google/uuid"
)

// DetectionSettings tunes the detector/matcher/recognition stages.
type DetectionSettings struct {
	MinConfidence             float32 `json:"min_confidence" yaml:"min_confidence"`
	MatchThreshold            float32 `json:"match_threshold" yaml:"match_threshold"`
	SightingCooldownSecs      int32   `json:"sighting_cooldown_secs" yaml:"sighting_cooldown_secs"`
	MotionDetectionEnabled    bool    `json:"motion_detection_enabled" yaml:"motion_detection_enabled"`
	MotionSensitivity         float32 `json:"motion_sensitivity" yaml:"motion_sensitivity"`
}

// DefaultDetectionSettings returns the factory detection configuration.
func DefaultDetectionSettings() DetectionSettings {
	return DetectionSettings{
		MinConfidence:          0.7,
		MatchThreshold:         0.6,
		SightingCooldownSecs:   30,
		MotionDetectionEnabled: true,
		MotionSensitivity:      0.3,
	}
}

// RecordingSettings tunes triggered recording and storage retention.
type RecordingSettings struct {
	DetectionTriggered      bool  `json:"detection_triggered" yaml:"detection_triggered"`
	PreTriggerBufferSecs    int32 `json:"pre_trigger_buffer_secs" yaml:"pre_trigger_buffer_secs"`
	PostTriggerBufferSecs   int32 `json:"post_trigger_buffer_secs" yaml:"post_trigger_buffer_secs"`
	MaxSegmentDurationSecs  int32 `json:"max_segment_duration_secs" yaml:"max_segment_duration_secs"`
	MaxStorageBytes         int64 `json:"max_storage_bytes" yaml:"max_storage_bytes"`
	AutoCleanupEnabled      bool  `json:"auto_cleanup_enabled" yaml:"auto_cleanup_enabled"`
}

const bytesPerGigabyte = 1024 * 1024 * 1024

// DefaultRecordingSettings returns the factory recording configuration,
// capped at 100GB of managed storage.
func DefaultRecordingSettings() RecordingSettings {
	return RecordingSettings{
		DetectionTriggered:     true,
		PreTriggerBufferSecs:   5,
		PostTriggerBufferSecs:  10,
		MaxSegmentDurationSecs: 300,
		MaxStorageBytes:        100 * bytesPerGigabyte,
		AutoCleanupEnabled:     true,
	}
}

// NotificationSettings tunes which events surface alerts.
type NotificationSettings struct {
	DesktopNotifications bool `json:"desktop_notifications" yaml:"desktop_notifications"`
	NotifyNewProfile     bool `json:"notify_new_profile" yaml:"notify_new_profile"`
	NotifyFlagged        bool `json:"notify_flagged" yaml:"notify_flagged"`
	NotifyUnknown        bool `json:"notify_unknown" yaml:"notify_unknown"`
}

// DefaultNotificationSettings returns the factory notification configuration.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		DesktopNotifications: true,
		NotifyNewProfile:     true,
		NotifyFlagged:        true,
		NotifyUnknown:        false,
	}
}

// DisplaySettings tunes the live-view overlay.
type DisplaySettings struct {
	ShowBoundingBoxes bool `json:"show_bounding_boxes" yaml:"show_bounding_boxes"`
	ShowConfidence    bool `json:"show_confidence" yaml:"show_confidence"`
	ShowNames         bool `json:"show_names" yaml:"show_names"`
	DarkMode          bool `json:"dark_mode" yaml:"dark_mode"`
}

// DefaultDisplaySettings returns the factory display configuration.
func DefaultDisplaySettings() DisplaySettings {
	return DisplaySettings{
		ShowBoundingBoxes: true,
		ShowConfidence:    true,
		ShowNames:         true,
		DarkMode:          true,
	}
}

// InstanceSettings identifies this deployment for multi-instance sync.
type InstanceSettings struct {
	InstanceID    uuid.UUID `json:"instance_id" yaml:"instance_id"`
	InstanceName  string    `json:"instance_name" yaml:"instance_name"`
	SyncDatabases []string  `json:"sync_databases" yaml:"sync_databases"`
}

// DefaultInstanceSettings generates a fresh instance identity, naming it
// after the local hostname when available.
func DefaultInstanceSettings() InstanceSettings {
	name := "unknown"
	if h, err := os.Hostname(); err == nil && h != "" {
		name = h
	}
	return InstanceSettings{
		InstanceID:    uuid.New(),
		InstanceName:  name,
		SyncDatabases: []string{},
	}
}

// Settings is the complete runtime configuration, persisted so it
// survives restarts and can be edited at runtime.
type Settings struct {
	Detection    DetectionSettings    `json:"detection"`
	Recording    RecordingSettings    `json:"recording"`
	Notification NotificationSettings `json:"notification"`
	Display      DisplaySettings      `json:"display"`
	Instance     InstanceSettings     `json:"instance"`
}

// NewSettings builds a settings record with factory defaults for every
// group.
func NewSettings() Settings {
	return Settings{
		Detection:    DefaultDetectionSettings(),
		Recording:    DefaultRecordingSettings(),
		Notification: DefaultNotificationSettings(),
		Display:      DefaultDisplaySettings(),
		Instance:     DefaultInstanceSettings(),
	}
}
