package vision

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"log/slog"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// AttributeService adapts an AttributePredictor to the orchestrator's
// Attributor interface: decode the source frame, crop the detected face,
// predict gender and age range.
type AttributeService struct {
	predictor *AttributePredictor
}

// NewAttributeService wraps predictor for use by the orchestrator.
func NewAttributeService(predictor *AttributePredictor) *AttributeService {
	return &AttributeService{predictor: predictor}
}

// Predict decodes frameData, crops bbox, and runs gender/age prediction.
// ok is false when the frame can't be decoded or the crop is empty.
func (a *AttributeService) Predict(frameData []byte, bbox valueobject.BoundingBox) (gender string, ageRange string, ok bool) {
	img, _, err := image.Decode(bytes.NewReader(frameData))
	if err != nil {
		slog.Warn("attribute prediction: decode frame", "error", err)
		return "", "", false
	}

	face := cropFace(img, bbox)
	if face == nil {
		return "", "", false
	}

	inputW, inputH := a.predictor.InputSize()
	data := preprocessForAttributes(face, inputW, inputH)

	result, err := a.predictor.Predict(data)
	if err != nil {
		slog.Warn("attribute prediction failed", "error", err)
		return "", "", false
	}

	return result.Gender, result.AgeRange, true
}
