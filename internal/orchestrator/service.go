// Package orchestrator implements the detection pipeline's core decision
// logic: matching detected faces against known profiles, creating new
// profiles for unmatched faces, recording sightings and publishing the
// domain events that drive recordings and external consumers.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/blobstore"
	"github.com/psavelis/safelynx/internal/domain/entity"
	"github.com/psavelis/safelynx/internal/domain/event"
	"github.com/psavelis/safelynx/internal/domain/repository"
	"github.com/psavelis/safelynx/internal/domain/valueobject"
	"github.com/psavelis/safelynx/internal/eventbus"
	"github.com/psavelis/safelynx/internal/matcher"
	"github.com/psavelis/safelynx/internal/observability"
)

const snapshotPrefix = "snapshots/"

// Attributor predicts soft biometric attributes (gender, age range) for a
// detected face, given the source frame and its bounding box. A nil
// Attributor disables attribute tagging entirely.
type Attributor interface {
	Predict(frameData []byte, bbox valueobject.BoundingBox) (gender string, ageRange string, ok bool)
}

// Config tunes how the orchestrator judges and records detections.
type Config struct {
	// MinConfidence is the detector confidence below which a face is
	// ignored entirely: no match attempt, no profile, no event.
	MinConfidence float32
	// MatchThreshold is the maximum embedding distance for two faces to
	// be considered the same profile.
	MatchThreshold float32
	// SightingCooldownSecs is the minimum time between recorded sightings
	// of the same profile, regardless of how often it reappears.
	SightingCooldownSecs int64
}

// DefaultConfig returns the orchestrator's out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		MinConfidence:        0.7,
		MatchThreshold:       0.6,
		SightingCooldownSecs: 30,
	}
}

// Service runs the match-or-create-profile decision for every detected
// face and records the resulting sightings.
type Service struct {
	profiles  repository.ProfileRepository
	sightings repository.SightingRepository
	matcher   *matcher.Cache
	bus       *eventbus.Bus
	blobs     blobstore.Store
	attrs     Attributor

	mu     sync.RWMutex
	config Config

	locMu    sync.RWMutex
	location *valueobject.GeoLocation

	tracker *sightingTracker
}

// New wires a Service from its collaborators. cfg is used as given: a
// zero Config is not replaced with DefaultConfig.
func New(
	profiles repository.ProfileRepository,
	sightings repository.SightingRepository,
	cache *matcher.Cache,
	bus *eventbus.Bus,
	blobs blobstore.Store,
	attrs Attributor,
	cfg Config,
) *Service {
	return &Service{
		profiles:  profiles,
		sightings: sightings,
		matcher:   cache,
		bus:       bus,
		blobs:     blobs,
		attrs:     attrs,
		config:    cfg,
		tracker:   newSightingTracker(cfg.SightingCooldownSecs),
	}
}

// SetLocation updates the geographic location attached to sightings and
// profile-created events produced from here on.
func (s *Service) SetLocation(loc *valueobject.GeoLocation) {
	s.locMu.Lock()
	defer s.locMu.Unlock()
	s.location = loc
}

func (s *Service) currentLocation() *valueobject.GeoLocation {
	s.locMu.RLock()
	defer s.locMu.RUnlock()
	return s.location
}

// UpdateConfig replaces the active tuning, propagating the cooldown to
// the sighting tracker.
func (s *Service) UpdateConfig(cfg Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	s.tracker.setCooldown(cfg.SightingCooldownSecs)
}

func (s *Service) currentConfig() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// disposition is the outcome of pass one for a single detection.
type disposition struct {
	detection    *entity.Detection
	skip         bool
	profileID    uuid.UUID
	profileName  *string
	class        entity.ProfileClassification
	matched      bool
	isNewProfile bool
	distance     float32
}

// ProcessFrame runs both passes of the detection algorithm over frame:
// pass one decides, per detection, whether to skip it, match it to an
// existing profile or create a new one; pass two stamps each matched,
// not-new detection with its profile id and distance, publishes
// FaceDetected for every kept
// detection and records a sighting (plus ProfileSighted) for matched,
// not-new dispositions that clear the per-profile cooldown. Newly created
// profiles never get a sighting recorded on the frame that created them.
// It returns the ids of profiles created by this frame, in detection
// order.
func (s *Service) ProcessFrame(ctx context.Context, frame *entity.FrameDetections, location *valueobject.GeoLocation) ([]uuid.UUID, error) {
	cfg := s.currentConfig()
	if location == nil {
		location = s.currentLocation()
	}

	dispositions := make([]disposition, 0, len(frame.Detections))
	created := make([]uuid.UUID, 0)

	for i := range frame.Detections {
		det := &frame.Detections[i]

		if det.Confidence < cfg.MinConfidence {
			dispositions = append(dispositions, disposition{detection: det, skip: true})
			continue
		}

		if det.Embedding == nil {
			profile, thumbnailPath, err := s.createProfileFromDetection(ctx, frame, det)
			if err != nil {
				slog.Error("failed to create degraded-mode profile from detection", "error", err)
				dispositions = append(dispositions, disposition{detection: det, skip: true})
				continue
			}

			// Degraded mode: no embedding model available. The profile's
			// placeholder embedding is all zeros, which would spuriously
			// match every other degraded-mode profile, so it is deliberately
			// never inserted into the matcher cache.
			observability.ProfilesCreated.Inc()

			s.bus.Publish(event.ProfileCreated{
				ProfileID:     profile.ID,
				ThumbnailPath: thumbnailPath,
				CameraID:      frame.CameraID,
				Location:      location,
				At:            time.Now().UTC(),
			})

			dispositions = append(dispositions, disposition{
				detection:    det,
				profileID:    profile.ID,
				profileName:  profile.Name,
				class:        profile.Classification,
				matched:      true,
				isNewProfile: true,
			})
			created = append(created, profile.ID)
			continue
		}

		if match, ok := s.matcher.Find(*det.Embedding); ok {
			profile, err := s.profiles.FindByID(ctx, match.ProfileID)
			if err != nil {
				slog.Debug("matched profile vanished before lookup", "profile_id", match.ProfileID, "error", err)
				dispositions = append(dispositions, disposition{detection: det, skip: true})
				continue
			}
			dispositions = append(dispositions, disposition{
				detection: det,
				profileID: profile.ID,
				profileName: profile.Name,
				class:     profile.Classification,
				matched:   true,
				distance:  match.Distance,
			})
			observability.FacesRecognized.WithLabelValues(frame.CameraID.String()).Inc()
			continue
		}

		profile, thumbnailPath, err := s.createProfileFromDetection(ctx, frame, det)
		if err != nil {
			slog.Error("failed to create profile from detection", "error", err)
			dispositions = append(dispositions, disposition{detection: det, skip: true})
			continue
		}

		s.matcher.Add(profile.ID, profile.Embedding)
		observability.ProfilesCreated.Inc()

		s.bus.Publish(event.ProfileCreated{
			ProfileID:     profile.ID,
			ThumbnailPath: thumbnailPath,
			CameraID:      frame.CameraID,
			Location:      location,
			At:            time.Now().UTC(),
		})

		dispositions = append(dispositions, disposition{
			detection:    det,
			profileID:    profile.ID,
			profileName:  profile.Name,
			class:        profile.Classification,
			matched:      true,
			isNewProfile: true,
		})
		created = append(created, profile.ID)
	}

	for _, d := range dispositions {
		if d.skip {
			continue
		}
		if !d.isNewProfile {
			d.detection.SetMatch(d.profileID, d.distance)
		}

		profileID := d.profileID
		class := d.class
		name := d.profileName

		s.bus.Publish(event.FaceDetected{
			CameraID:       frame.CameraID,
			FrameNumber:    frame.FrameNumber,
			BoundingBox:    d.detection.BoundingBox,
			Confidence:     d.detection.Confidence,
			ProfileID:      &profileID,
			ProfileName:    name,
			Classification: &class,
			At:             time.Now().UTC(),
		})
		observability.FacesDetected.WithLabelValues(frame.CameraID.String()).Inc()

		if !d.matched || d.isNewProfile {
			continue
		}

		if !s.tracker.shouldRecord(profileID) {
			observability.SightingCooldownSkips.Inc()
			continue
		}

		sightingID, err := s.recordSightingData(ctx, frame, d, location)
		if err != nil {
			slog.Error("failed to record sighting", "profile_id", profileID, "error", err)
			continue
		}

		s.bus.Publish(event.ProfileSighted{
			SightingID:     sightingID,
			ProfileID:      profileID,
			ProfileName:    name,
			Classification: class,
			CameraID:       frame.CameraID,
			Location:       location,
			Confidence:     d.detection.Confidence,
			At:             time.Now().UTC(),
		})
	}

	s.tracker.cleanup()

	observability.FramesProcessed.WithLabelValues(frame.CameraID.String()).Inc()
	observability.MatcherCacheSize.Set(float64(s.matcher.CacheSize()))

	return created, nil
}

// createProfileFromDetection builds and persists a new profile for an
// unmatched face, materialising its thumbnail first so the profile can be
// saved with a thumbnail path already set.
func (s *Service) createProfileFromDetection(ctx context.Context, frame *entity.FrameDetections, det *entity.Detection) (*entity.Profile, *string, error) {
	thumbnailPath, err := s.materializeThumbnail(ctx, frame, det.BoundingBox)
	if err != nil {
		slog.Warn("thumbnail materialization failed, creating profile without one", "error", err)
		thumbnailPath = nil
	}

	embedding := valueobject.FaceEmbedding{}
	if det.Embedding != nil {
		embedding = *det.Embedding
	}
	profile := entity.NewProfile(embedding, thumbnailPath)

	if s.attrs != nil {
		if gender, ageRange, ok := s.attrs.Predict(frame.FrameData, det.BoundingBox); ok {
			profile.AddTag(valueobject.NewProfileTag(fmt.Sprintf("gender:%s", gender)))
			profile.AddTag(valueobject.NewProfileTag(fmt.Sprintf("age:%s", ageRange)))
		}
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, nil, fmt.Errorf("save new profile: %w", err)
	}

	return profile, thumbnailPath, nil
}

// recordSightingData materializes a full-frame snapshot and persists the
// sighting row, returning its id.
func (s *Service) recordSightingData(ctx context.Context, frame *entity.FrameDetections, d disposition, location *valueobject.GeoLocation) (uuid.UUID, error) {
	snapshotPath, err := s.materializeSnapshot(ctx, frame)
	if err != nil {
		slog.Warn("snapshot materialization failed, recording sighting without one", "error", err)
		snapshotPath = ""
	}

	sighting := entity.NewSighting(
		d.profileID,
		frame.CameraID,
		snapshotPath,
		d.detection.BoundingBox,
		d.detection.Confidence,
		location,
	)

	if err := s.sightings.Save(ctx, sighting); err != nil {
		return uuid.Nil, fmt.Errorf("save sighting: %w", err)
	}

	if profile, err := s.profiles.FindByID(ctx, d.profileID); err == nil {
		profile.RecordSighting()
		if err := s.profiles.Update(ctx, profile); err != nil {
			slog.Warn("failed to bump profile sighting count", "profile_id", d.profileID, "error", err)
		}
	}

	return sighting.ID, nil
}

// materializeThumbnail crops frame's decoded image to bbox, resizes it to
// a fixed thumbnail size and stores it as a JPEG. It returns the filename
// only, never an absolute path.
func (s *Service) materializeThumbnail(ctx context.Context, frame *entity.FrameDetections, bbox valueobject.BoundingBox) (*string, error) {
	img, ok := decodeFrame(frame.FrameData)
	if !ok {
		return nil, fmt.Errorf("frame data not decodable as jpeg or a standard raw resolution")
	}

	thumb := cropAndResizeThumbnail(img, bbox)
	data, err := encodeJPEG(thumb, 85)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("thumb_%s.jpg", uuid.New().String())
	key := snapshotPrefix + filename
	if err := s.blobs.Put(ctx, key, data, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("store thumbnail: %w", err)
	}

	return &filename, nil
}

// materializeSnapshot re-encodes frame's full decoded image as a JPEG at
// capture resolution, uncropped, and stores it. It returns the filename
// only, never an absolute path.
func (s *Service) materializeSnapshot(ctx context.Context, frame *entity.FrameDetections) (string, error) {
	img, ok := decodeFrame(frame.FrameData)
	if !ok {
		return "", fmt.Errorf("frame data not decodable as jpeg or a standard raw resolution")
	}

	data, err := encodeJPEG(img, 90)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("snap_%s.jpg", uuid.New().String())
	key := snapshotPrefix + filename
	if err := s.blobs.Put(ctx, key, data, "image/jpeg"); err != nil {
		return "", fmt.Errorf("store snapshot: %w", err)
	}

	return filename, nil
}

