package vision

import (
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// nativeEmbeddingDim is ArcFace's own output width. It does not match
// valueobject.EmbeddingDimension (128); reduceEmbedding projects one onto
// the other at the boundary of this package.
const nativeEmbeddingDim = 512

// Embedder extracts face embeddings using ArcFace ONNX model.
type Embedder struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	inputW       int
	inputH       int
}

// NewEmbedder loads the ArcFace ONNX model for face embedding extraction.
// opts may be nil (ORT defaults) or a pre-configured *ort.SessionOptions.
func NewEmbedder(modelPath string, opts *ort.SessionOptions) (*Embedder, error) {
	// ArcFace w600k_r50 expects 112x112 input
	inputW, inputH := 112, 112

	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	outputShape := ort.NewShape(1, int64(nativeEmbeddingDim))
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input.1"},
		[]string{"683"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder session: %w", err)
	}

	return &Embedder{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		inputW:       inputW,
		inputH:       inputH,
	}, nil
}

// Extract runs embedding extraction on a face crop and returns this
// domain's fixed 128-dimensional, L2-normalized embedding.
// faceData should be CHW format [3, 112, 112], normalized.
func (e *Embedder) Extract(faceData []float32) (valueobject.FaceEmbedding, error) {
	inputSlice := e.inputTensor.GetData()
	copy(inputSlice, faceData)

	if err := e.session.Run(); err != nil {
		return valueobject.FaceEmbedding{}, fmt.Errorf("run embedding: %w", err)
	}

	native := make([]float32, nativeEmbeddingDim)
	copy(native, e.outputTensor.GetData())

	reduced := reduceEmbedding(native)
	embedding, err := valueobject.NewFaceEmbedding(reduced)
	if err != nil {
		return valueobject.FaceEmbedding{}, fmt.Errorf("build embedding: %w", err)
	}
	embedding.Normalize()
	return embedding, nil
}

// reduceEmbedding projects ArcFace's native 512-dim output onto this
// domain's 128-dim contract by average-pooling each group of 4
// consecutive components. A future embedder that natively emits 128
// dimensions (e.g. FaceNet) would skip this step entirely.
func reduceEmbedding(native []float32) []float32 {
	groupSize := nativeEmbeddingDim / valueobject.EmbeddingDimension
	reduced := make([]float32, valueobject.EmbeddingDimension)
	for i := range reduced {
		var sum float32
		for j := 0; j < groupSize; j++ {
			sum += native[i*groupSize+j]
		}
		reduced[i] = sum / float32(groupSize)
	}
	return reduced
}

// InputSize returns the expected face crop dimensions.
func (e *Embedder) InputSize() (int, int) {
	return e.inputW, e.inputH
}

// EmbeddingDim returns the embedding vector dimension produced by Extract.
func (e *Embedder) EmbeddingDim() int {
	return valueobject.EmbeddingDimension
}

func (e *Embedder) Close() {
	if e.session != nil {
		e.session.Destroy()
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
	}
}
