// Package capture runs one capture loop per camera: an FFmpeg subprocess
// extracting JPEG frames from a device or stream URL, fanned out to any
// number of subscribers through a bounded, drop-for-laggards broadcast.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/ingest"
	"github.com/psavelis/safelynx/internal/observability"
)

// State is the camera capture's lifecycle state.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateError    State = "error"
)

// subscriberCapacity bounds how many frames a lagging subscriber can
// queue before new frames are dropped for it.
const subscriberCapacity = 8

// Config describes one camera's capture source and target frame rate.
type Config struct {
	CameraID  uuid.UUID
	StreamURL string
	FPS       int
	Width     int
}

// Subscription is a single consumer's channel of captured frames.
type Subscription struct {
	frames chan *entity.FrameDetections
	loop   *Loop
}

// Frames returns the channel to range over for newly captured frames. It
// is closed when the loop stops or Unsubscribe is called.
func (s *Subscription) Frames() <-chan *entity.FrameDetections {
	return s.frames
}

// Loop owns one camera's FFmpeg extraction process and fans its frames
// out to subscribers.
type Loop struct {
	config    Config
	extractor *ingest.FFmpegExtractor

	mu    sync.RWMutex
	state State

	frameCount uint64

	subMu sync.RWMutex
	subs  map[*Subscription]struct{}
}

// New creates a capture loop for cfg, initially stopped.
func New(cfg Config) *Loop {
	return &Loop{
		config:    cfg,
		extractor: &ingest.FFmpegExtractor{},
		state:     StateStopped,
		subs:      make(map[*Subscription]struct{}),
	}
}

// State returns the loop's current lifecycle state.
func (l *Loop) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Subscribe registers a new subscription. Callers must call Unsubscribe
// when done to release the channel.
func (l *Loop) Subscribe() *Subscription {
	sub := &Subscription{
		frames: make(chan *entity.FrameDetections, subscriberCapacity),
		loop:   l,
	}
	l.subMu.Lock()
	l.subs[sub] = struct{}{}
	l.subMu.Unlock()
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (l *Loop) Unsubscribe(sub *Subscription) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	if _, ok := l.subs[sub]; ok {
		delete(l.subs, sub)
		close(sub.frames)
	}
}

func (l *Loop) broadcast(frame *entity.FrameDetections) {
	l.subMu.RLock()
	defer l.subMu.RUnlock()

	for sub := range l.subs {
		select {
		case sub.frames <- frame:
		default:
			slog.Warn("capture subscriber lagging, dropping frame", "camera_id", l.config.CameraID)
		}
	}
}

// Start begins extraction in the background. It returns once the
// extraction goroutine has been launched; the state transitions from
// Starting to Running only after the first frame arrives.
func (l *Loop) Start(ctx context.Context) error {
	if l.State() == StateRunning {
		return nil
	}
	l.setState(StateStarting)

	go func() {
		defer func() {
			l.subMu.Lock()
			for sub := range l.subs {
				delete(l.subs, sub)
				close(sub.frames)
			}
			l.subMu.Unlock()
		}()
		err := l.extractor.StartExtraction(ctx, l.config.StreamURL, l.config.FPS, l.config.Width, l.onFrame)
		if err != nil && ctx.Err() == nil {
			slog.Error("capture loop exited with error", "camera_id", l.config.CameraID, "error", err)
			l.setState(StateError)
			return
		}
		l.setState(StateStopped)
	}()

	return nil
}

// Stop terminates the FFmpeg subprocess and marks the loop stopped.
func (l *Loop) Stop() {
	l.extractor.Stop()
	l.setState(StateStopped)
}

func (l *Loop) onFrame(data []byte) error {
	if l.State() != StateRunning {
		l.setState(StateRunning)
	}

	l.mu.Lock()
	l.frameCount++
	frameNumber := l.frameCount
	l.mu.Unlock()

	if _, _, err := jpegDimensions(data); err != nil {
		slog.Warn("failed to read frame dimensions, dropping frame", "camera_id", l.config.CameraID, "error", err)
		return nil
	}

	frame := entity.NewFrameDetections(l.config.CameraID, frameNumber, time.Now().UTC().UnixMilli())
	frame.SetFrameData(data)

	l.broadcast(frame)
	observability.FramesProcessed.WithLabelValues(l.config.CameraID.String()).Inc()

	return nil
}

func jpegDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode jpeg header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
