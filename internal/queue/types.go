package queue

import "github.com/google/uuid"

// FrameTask references one captured frame already stored in the blob
// store under the "frames/" prefix. Workers fetch the frame bytes by key
// rather than carrying them through NATS, keeping queue messages small.
type FrameTask struct {
	CameraID    uuid.UUID `json:"camera_id"`
	FrameKey    string    `json:"frame_key"`
	FrameNumber uint64    `json:"frame_number"`
	TimestampMs int64     `json:"timestamp_ms"`
}
