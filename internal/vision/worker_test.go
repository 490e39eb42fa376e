package vision

import (
	"image/color"
	"testing"
)

// §4.2 pixel format inference: packed RGB (w*h*3 bytes) keeps its
// colour channels as-is; no luma conversion is applied.
func TestDecodePixelBufferInfersPackedRGB(t *testing.T) {
	const w, h = 2, 1
	data := []byte{
		255, 0, 0, // red pixel
		0, 255, 0, // green pixel
	}

	img, err := decodePixelBuffer(data, w, h)
	if err != nil {
		t.Fatalf("decodePixelBuffer: %v", err)
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if uint8(r>>8) != 255 || uint8(g>>8) != 0 || uint8(b>>8) != 0 {
		t.Fatalf("expected red pixel preserved, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

// YUY2 (w*h*2 bytes): only the Y bytes at even offsets are used, and the
// result decodes to greyscale (R=G=B=Y).
func TestDecodePixelBufferInfersYUY2(t *testing.T) {
	const w, h = 2, 1
	data := []byte{100, 128, 200, 128} // Y0 U Y1 V

	img, err := decodePixelBuffer(data, w, h)
	if err != nil {
		t.Fatalf("decodePixelBuffer: %v", err)
	}

	r0, g0, b0, _ := img.At(0, 0).RGBA()
	if r0>>8 != 100 || g0>>8 != 100 || b0>>8 != 100 {
		t.Fatalf("expected grey pixel 0 = Y(100), got (%d,%d,%d)", r0>>8, g0>>8, b0>>8)
	}

	r1, g1, b1, _ := img.At(1, 0).RGBA()
	if r1>>8 != 200 || g1>>8 != 200 || b1>>8 != 200 {
		t.Fatalf("expected grey pixel 1 = Y(200), got (%d,%d,%d)", r1>>8, g1>>8, b1>>8)
	}
}

// NV12 (w*h + w*h/2 bytes): only the leading Y plane is consumed.
func TestDecodePixelBufferInfersNV12(t *testing.T) {
	const w, h = 4, 2
	pixelCount := w * h
	data := make([]byte, pixelCount+pixelCount/2)
	for i := 0; i < pixelCount; i++ {
		data[i] = byte(i * 10 % 256)
	}

	img, err := decodePixelBuffer(data, w, h)
	if err != nil {
		t.Fatalf("decodePixelBuffer: %v", err)
	}

	for i := 0; i < pixelCount; i++ {
		x, y := i%w, i/w
		r, g, b, _ := img.At(x, y).RGBA()
		want := color.Gray{Y: data[i]}
		wr, wg, wb, _ := want.RGBA()
		if r>>8 != wr>>8 || g>>8 != wg>>8 || b>>8 != wb>>8 {
			t.Fatalf("pixel %d: expected grey %d, got (%d,%d,%d)", i, data[i], r>>8, g>>8, b>>8)
		}
	}
}

// Any other size falls back to a best-effort greyscale decode using
// min(width*height, len(data)) bytes as Y, never erroring.
func TestDecodePixelBufferFallsBackOnUnrecognizedSize(t *testing.T) {
	const w, h = 4, 4
	data := make([]byte, 7) // neither RGB, YUY2 nor NV12 shape

	img, err := decodePixelBuffer(data, w, h)
	if err != nil {
		t.Fatalf("decodePixelBuffer: %v", err)
	}
	if img == nil {
		t.Fatal("expected a best-effort image, got nil")
	}

	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != uint32(data[0]) || g>>8 != uint32(data[0]) || b>>8 != uint32(data[0]) {
		t.Fatalf("expected first fallback pixel from data[0]=%d, got (%d,%d,%d)", data[0], r>>8, g>>8, b>>8)
	}
}
