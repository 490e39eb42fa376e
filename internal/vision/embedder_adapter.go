package vision

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"log/slog"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// EmbedderService adapts an Embedder to work directly off a captured
// frame and a detected bounding box: decode the source frame, crop and
// upscale the face, then extract its embedding. This is the boundary
// cmd/worker calls once per detection before handing Detections to the
// orchestrator.
type EmbedderService struct {
	embedder *Embedder
}

// NewEmbedderService wraps embedder for use by the frame-processing
// pipeline.
func NewEmbedderService(embedder *Embedder) *EmbedderService {
	return &EmbedderService{embedder: embedder}
}

// minFaceCropSize is the shortest-side floor a crop is upscaled to before
// embedding extraction, keeping small/distant faces from degrading the
// embedding quality.
const minFaceCropSize = 80

// Extract decodes frameData, crops bbox, and runs ArcFace embedding
// extraction. ok is false when the frame can't be decoded or the crop is
// empty; callers fall back to the orchestrator's degraded mode in that
// case.
func (s *EmbedderService) Extract(frameData []byte, bbox valueobject.BoundingBox) (embedding valueobject.FaceEmbedding, ok bool) {
	img, _, err := image.Decode(bytes.NewReader(frameData))
	if err != nil {
		slog.Warn("embedding extraction: decode frame", "error", err)
		return valueobject.FaceEmbedding{}, false
	}

	face := cropFace(img, bbox)
	if face == nil {
		return valueobject.FaceEmbedding{}, false
	}
	face = upscaleFace(face, minFaceCropSize)

	inputW, inputH := s.embedder.InputSize()
	data := preprocessForEmbedding(face, inputW, inputH)

	embedding, err = s.embedder.Extract(data)
	if err != nil {
		slog.Warn("embedding extraction failed", "error", err)
		return valueobject.FaceEmbedding{}, false
	}
	return embedding, true
}
