// Package recording manages detection-triggered video segments: one
// active session per camera, started on the first detection and stopped
// after a post-trigger quiet period or a maximum segment duration.
package recording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/event"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/eventbus"
	"github.com/psavelis/safelynx/internal/observability"
)

// recordingKeyPrefix is the blob key namespace recording segments live
// under, mirroring the orchestrator's "snapshots/" convention.
const recordingKeyPrefix = "recordings/"

// Config tunes when recording sessions start and stop.
type Config struct {
	// DetectionTriggered, when true, makes OnDetection open a session for
	// a camera that has none, closed once PostTriggerSecs pass without a
	// detection; when false, OnDetection opens no session, and a session
	// opened through StartRecording closes once it exceeds MaxSegmentSecs.
	DetectionTriggered bool
	PreTriggerSecs     int64
	PostTriggerSecs    int64
	MaxSegmentSecs     int64
}

// DefaultConfig mirrors the original service's defaults.
func DefaultConfig() Config {
	return Config{
		DetectionTriggered: true,
		PreTriggerSecs:     5,
		PostTriggerSecs:    10,
		MaxSegmentSecs:     300,
	}
}

// session tracks one camera's in-progress recording.
type session struct {
	recording        *entity.Recording
	lastDetectionAt  *time.Time
	frameCount       int64
	bytesWritten     int64
}

// Service manages the recording lifecycle across all cameras. Each
// camera has at most one active session; Recording.Status ==
// RecordingStatusRecording holds exactly for the set of cameras present
// in active.
type Service struct {
	recordings repository.RecordingRepository
	bus        *eventbus.Bus

	mu     sync.RWMutex
	config Config

	sessMu  sync.RWMutex
	active  map[uuid.UUID]*session
}

// New wires a Service against its repository and event bus.
func New(recordings repository.RecordingRepository, bus *eventbus.Bus, cfg Config) *Service {
	return &Service{
		recordings: recordings,
		bus:        bus,
		config:     cfg,
		active:     make(map[uuid.UUID]*session),
	}
}

// UpdateConfig replaces the active tuning.
func (s *Service) UpdateConfig(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

func (s *Service) currentConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// StartRecording opens a new segment for cameraID, persisting the row
// before the session becomes visible to other callers.
func (s *Service) StartRecording(ctx context.Context, cameraID uuid.UUID) (uuid.UUID, error) {
	timestamp := time.Now().UTC().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.mp4", cameraID, timestamp)

	rec := entity.NewRecording(cameraID, filename)

	if err := s.recordings.Save(ctx, rec); err != nil {
		return uuid.Nil, fmt.Errorf("save recording: %w", err)
	}

	s.sessMu.Lock()
	s.active[cameraID] = &session{recording: rec}
	s.sessMu.Unlock()

	s.bus.Publish(event.RecordingStarted{
		RecordingID: rec.ID,
		CameraID:    cameraID,
		At:          time.Now().UTC(),
	})
	observability.ActiveRecordingSessions.Set(float64(s.sessionCount()))

	return rec.ID, nil
}

// StopRecording finalizes cameraID's active segment, if any, and returns
// it. It is a no-op returning (nil, nil) when no session is open.
func (s *Service) StopRecording(ctx context.Context, cameraID uuid.UUID) (*entity.Recording, error) {
	s.sessMu.Lock()
	sess, ok := s.active[cameraID]
	if ok {
		delete(s.active, cameraID)
	}
	s.sessMu.Unlock()

	if !ok {
		return nil, nil
	}

	durationMs := time.Since(sess.recording.StartedAt).Milliseconds()
	sess.recording.Complete(sess.bytesWritten, durationMs, sess.frameCount)

	if err := s.recordings.Update(ctx, sess.recording); err != nil {
		return nil, fmt.Errorf("update recording: %w", err)
	}

	s.bus.Publish(event.RecordingEnded{
		RecordingID:   sess.recording.ID,
		CameraID:      cameraID,
		DurationMs:    durationMs,
		FileSizeBytes: sess.bytesWritten,
		HasDetections: sess.recording.HasDetections,
		At:            time.Now().UTC(),
	})
	observability.ActiveRecordingSessions.Set(float64(s.sessionCount()))

	return sess.recording, nil
}

// OnDetection records that a face was seen on cameraID just now. If no
// session is open and the config is detection-triggered, a new one is
// started.
func (s *Service) OnDetection(ctx context.Context, cameraID uuid.UUID) error {
	cfg := s.currentConfig()

	s.sessMu.Lock()
	sess, ok := s.active[cameraID]
	if ok {
		now := time.Now().UTC()
		sess.lastDetectionAt = &now
		sess.recording.MarkHasDetections()
	}
	s.sessMu.Unlock()

	if !ok && cfg.DetectionTriggered {
		if _, err := s.StartRecording(ctx, cameraID); err != nil {
			return err
		}
		s.sessMu.Lock()
		if sess, ok := s.active[cameraID]; ok {
			now := time.Now().UTC()
			sess.lastDetectionAt = &now
			sess.recording.MarkHasDetections()
		}
		s.sessMu.Unlock()
	}
	return nil
}

// UpdateStats accumulates frame and byte counters for cameraID's active
// session. It is a no-op when no session is open.
func (s *Service) UpdateStats(cameraID uuid.UUID, bytesWritten int64) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if sess, ok := s.active[cameraID]; ok {
		sess.frameCount++
		sess.bytesWritten += bytesWritten
	}
}

// CheckTimeout stops cameraID's active session if it has run past its
// configured limit: the post-trigger quiet period in detection-triggered
// mode, or the max segment duration otherwise. Returns whether a stop
// occurred.
func (s *Service) CheckTimeout(ctx context.Context, cameraID uuid.UUID) (bool, error) {
	cfg := s.currentConfig()

	s.sessMu.RLock()
	sess, ok := s.active[cameraID]
	var shouldStop bool
	if ok {
		now := time.Now().UTC()
		if !cfg.DetectionTriggered {
			shouldStop = now.Sub(sess.recording.StartedAt) > time.Duration(cfg.MaxSegmentSecs)*time.Second
		} else if sess.lastDetectionAt != nil {
			shouldStop = now.Sub(*sess.lastDetectionAt) > time.Duration(cfg.PostTriggerSecs)*time.Second
		}
	}
	s.sessMu.RUnlock()

	if !ok || !shouldStop {
		return false, nil
	}

	if _, err := s.StopRecording(ctx, cameraID); err != nil {
		return false, err
	}
	return true, nil
}

// ActiveRecording returns cameraID's in-progress recording, if any.
func (s *Service) ActiveRecording(cameraID uuid.UUID) (*entity.Recording, bool) {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	sess, ok := s.active[cameraID]
	if !ok {
		return nil, false
	}
	return sess.recording, true
}

// AllActiveRecordings returns every camera's in-progress recording.
func (s *Service) AllActiveRecordings() []entity.Recording {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	out := make([]entity.Recording, 0, len(s.active))
	for _, sess := range s.active {
		out = append(out, *sess.recording)
	}
	return out
}

// IsRecording reports whether cameraID currently has an open session.
func (s *Service) IsRecording(cameraID uuid.UUID) bool {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	_, ok := s.active[cameraID]
	return ok
}

func (s *Service) sessionCount() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.active)
}
