package entity

import (
	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// Detection is a single face localized in one frame, optionally matched
// to a known profile.
type Detection struct {
	BoundingBox       valueobject.BoundingBox    `json:"bounding_box"`
	Confidence        float32                    `json:"confidence"`
	Embedding         *valueobject.FaceEmbedding `json:"embedding,omitempty"`
	MatchedProfileID  *uuid.UUID                 `json:"matched_profile_id,omitempty"`
	MatchDistance     *float32                   `json:"match_distance,omitempty"`
}

// NewDetection creates an unmatched detection straight off the detector.
func NewDetection(boundingBox valueobject.BoundingBox, confidence float32) Detection {
	return Detection{BoundingBox: boundingBox, Confidence: confidence}
}

// SetEmbedding attaches the embedder's output for this face.
func (d *Detection) SetEmbedding(embedding valueobject.FaceEmbedding) {
	d.Embedding = &embedding
}

// SetMatch records that this detection matched an existing profile at
// the given embedding distance.
func (d *Detection) SetMatch(profileID uuid.UUID, distance float32) {
	d.MatchedProfileID = &profileID
	d.MatchDistance = &distance
}

// IsMatched reports whether this detection was linked to a profile.
func (d *Detection) IsMatched() bool {
	return d.MatchedProfileID != nil
}

// FrameDetections is the set of faces found in one captured frame.
type FrameDetections struct {
	CameraID     uuid.UUID   `json:"camera_id"`
	FrameNumber  uint64      `json:"frame_number"`
	TimestampMs  int64       `json:"timestamp_ms"`
	Detections   []Detection `json:"detections"`
	FrameData    []byte      `json:"-"`
}

// NewFrameDetections creates an empty result for one captured frame.
func NewFrameDetections(cameraID uuid.UUID, frameNumber uint64, timestampMs int64) *FrameDetections {
	return &FrameDetections{
		CameraID:    cameraID,
		FrameNumber: frameNumber,
		TimestampMs: timestampMs,
		Detections:  []Detection{},
	}
}

// AddDetection appends a detection to the frame's results.
func (f *FrameDetections) AddDetection(detection Detection) {
	f.Detections = append(f.Detections, detection)
}

// SetFrameData attaches the JPEG-encoded source frame, used to cut
// thumbnails and snapshots without re-decoding upstream.
func (f *FrameDetections) SetFrameData(data []byte) {
	f.FrameData = data
}

// FaceCount returns the number of faces found.
func (f *FrameDetections) FaceCount() int {
	return len(f.Detections)
}

// HasFaces reports whether any face was detected.
func (f *FrameDetections) HasFaces() bool {
	return len(f.Detections) > 0
}

// HasKnownFaces reports whether any detection matched an existing profile.
func (f *FrameDetections) HasKnownFaces() bool {
	for _, d := range f.Detections {
		if d.IsMatched() {
			return true
		}
	}
	return false
}

// HasUnknownFaces reports whether any detection did not match a profile.
func (f *FrameDetections) HasUnknownFaces() bool {
	for _, d := range f.Detections {
		if !d.IsMatched() {
			return true
		}
	}
	return false
}
