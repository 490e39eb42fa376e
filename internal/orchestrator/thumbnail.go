package orchestrator

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

const thumbnailSize = 128

// standardResolutions is the set of raw-RGB frame sizes decodeFrame will
// try when JPEG decoding fails, in width x height order.
var standardResolutions = [][2]int{
	{1920, 1080},
	{1280, 720},
	{800, 600},
	{640, 480},
}

// decodeFrame decodes raw frame bytes into an image. JPEG is tried first;
// failing that, the buffer is matched against a small set of standard
// resolutions under the assumption it is packed RGB24. Returns
// ok == false when neither interpretation succeeds.
func decodeFrame(data []byte) (img image.Image, ok bool) {
	if len(data) == 0 {
		return nil, false
	}

	if decoded, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return decoded, true
	}

	for _, res := range standardResolutions {
		w, h := res[0], res[1]
		if len(data) != w*h*3 {
			continue
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			off := i * 3
			doff := i * 4
			rgba.Pix[doff] = data[off]
			rgba.Pix[doff+1] = data[off+1]
			rgba.Pix[doff+2] = data[off+2]
			rgba.Pix[doff+3] = 0xff
		}
		return rgba, true
	}

	return nil, false
}

// cropAndResizeThumbnail crops img to bbox (clamped to the image bounds)
// and nearest-neighbour resizes the result to thumbnailSize x thumbnailSize.
func cropAndResizeThumbnail(img image.Image, bbox valueobject.BoundingBox) image.Image {
	bounds := img.Bounds()

	x1 := bbox.X
	y1 := bbox.Y
	x2 := bbox.Right()
	y2 := bbox.Bottom()

	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		x1, y1, x2, y2 = bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y
	}

	var cropped image.Image
	type subImager interface {
		SubImage(r image.Rectangle) image.Image
	}
	rect := image.Rect(x1, y1, x2, y2)
	if si, ok := img.(subImager); ok {
		cropped = si.SubImage(rect)
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, x2-x1, y2-y1))
		for cy := y1; cy < y2; cy++ {
			for cx := x1; cx < x2; cx++ {
				dst.Set(cx-x1, cy-y1, img.At(cx, cy))
			}
		}
		cropped = dst
	}

	return resizeNearest(cropped, thumbnailSize, thumbnailSize)
}

func resizeNearest(img image.Image, targetW, targetH int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))

	if srcW == 0 || srcH == 0 {
		return dst
	}

	for y := 0; y < targetH; y++ {
		srcY := bounds.Min.Y + y*srcH/targetH
		for x := 0; x < targetW; x++ {
			srcX := bounds.Min.X + x*srcW/targetW
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
