package vision

import (
	"context"
	"image"
	"log/slog"
	"runtime"
)

// detectionRequest is one unit of work submitted to the detector worker:
// a raw pixel buffer plus its dimensions, and a one-shot reply channel.
type detectionRequest struct {
	pixels []byte
	width  int
	height int
	reply  chan []DetectionResult
}

// DetectorWorker confines a *Detector to a single dedicated OS thread and
// serves detection requests from arbitrary concurrent callers through a
// bounded request queue. ONNX sessions (like the underlying rustface
// detector this pipeline descends from) are not safe to share across
// threads, so every call into the model happens on the worker's own
// goroutine/thread.
type DetectorWorker struct {
	detector *Detector
	requests chan detectionRequest
	done     chan struct{}
}

// NewDetectorWorker spawns the worker goroutine and locks it to an OS
// thread for the lifetime of the process. queueCapacity bounds how many
// pending requests may queue before Submit starts dropping.
func NewDetectorWorker(detector *Detector, queueCapacity int) *DetectorWorker {
	w := &DetectorWorker{
		detector: detector,
		requests: make(chan detectionRequest, queueCapacity),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *DetectorWorker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	slog.Info("detector worker started")
	for req := range w.requests {
		img, err := decodePixelBuffer(req.pixels, req.width, req.height)
		if err != nil {
			slog.Warn("decode pixel buffer", "error", err)
			w.reply(req, nil)
			continue
		}

		input := preprocessForDetection(img, w.detector.inputW, w.detector.inputH)
		results, err := w.detector.Detect(input, req.width, req.height)
		if err != nil {
			slog.Warn("detect", "error", err)
			w.reply(req, nil)
			continue
		}
		w.reply(req, results)
	}
	close(w.done)
	slog.Info("detector worker stopped")
}

// reply sends to the caller's channel without blocking. If the caller
// already gave up (closed channel, or nobody reading), the send is
// discarded silently rather than leaking the worker goroutine.
func (w *DetectorWorker) reply(req detectionRequest, results []DetectionResult) {
	defer func() { recover() }()
	select {
	case req.reply <- results:
	default:
	}
}

// Submit enqueues a detection request and blocks for the reply, honoring
// ctx cancellation. If the worker's queue is full, the request is dropped
// immediately and ok is false — policy is drop rather than block the
// capture loop.
func (w *DetectorWorker) Submit(ctx context.Context, pixels []byte, width, height int) (results []DetectionResult, ok bool) {
	if len(pixels) == 0 {
		return nil, true
	}

	reply := make(chan []DetectionResult, 1)
	req := detectionRequest{pixels: pixels, width: width, height: height, reply: reply}

	select {
	case w.requests <- req:
	default:
		return nil, false
	}

	select {
	case results := <-reply:
		return results, true
	case <-ctx.Done():
		return nil, false
	}
}

// Close stops accepting new requests and waits for the worker thread to
// drain and exit.
func (w *DetectorWorker) Close() {
	close(w.requests)
	<-w.done
}

// decodePixelBuffer infers the pixel format of a raw camera frame from its
// byte length relative to width*height, per the three shapes this
// pipeline accepts:
//
//  1. width*height*3 bytes  -> packed RGB
//  2. width*height*2 bytes  -> YUY2 (packed Y-U-Y-V); only the Y bytes at
//     even offsets are used
//  3. width*height + width*height/2 bytes -> NV12 (planar Y followed by
//     interleaved UV); only the leading Y plane is used
//
// YUY2 and NV12 carry no reconstructed chroma here (matching the
// luma-only conversion this worker's detector capability was built
// against) and decode to a greyscale image with R=G=B=Y.
func decodePixelBuffer(data []byte, width, height int) (image.Image, error) {
	pixelCount := width * height

	switch {
	case len(data) == pixelCount*3:
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < pixelCount; i++ {
			off := i * 3
			doff := i * 4
			img.Pix[doff] = data[off]
			img.Pix[doff+1] = data[off+1]
			img.Pix[doff+2] = data[off+2]
			img.Pix[doff+3] = 0xff
		}
		return img, nil

	case len(data) == pixelCount*2:
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < pixelCount; i++ {
			y := data[i*2]
			doff := i * 4
			img.Pix[doff] = y
			img.Pix[doff+1] = y
			img.Pix[doff+2] = y
			img.Pix[doff+3] = 0xff
		}
		return img, nil

	case len(data) >= pixelCount && len(data) <= pixelCount+pixelCount/2:
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < pixelCount; i++ {
			y := data[i]
			doff := i * 4
			img.Pix[doff] = y
			img.Pix[doff+1] = y
			img.Pix[doff+2] = y
			img.Pix[doff+3] = 0xff
		}
		return img, nil

	default:
		n := pixelCount
		if len(data) < n {
			n = len(data)
		}
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		for i := 0; i < n; i++ {
			y := data[i]
			doff := i * 4
			img.Pix[doff] = y
			img.Pix[doff+1] = y
			img.Pix[doff+2] = y
			img.Pix[doff+3] = 0xff
		}
		return img, nil
	}
}
