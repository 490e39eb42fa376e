package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/psavelis/safelynx/internal/domain/valueobject"
)

// CameraType identifies the transport a camera source uses.
type CameraType string

const (
	CameraTypeBuiltin CameraType = "builtin"
	CameraTypeUSB     CameraType = "usb"
	CameraTypeRTSP    CameraType = "rtsp"
	CameraTypeBrowser CameraType = "browser"
)

// CameraStatus is the camera's current connection state.
type CameraStatus string

const (
	CameraStatusActive       CameraStatus = "active"
	CameraStatusInactive     CameraStatus = "inactive"
	CameraStatusError        CameraStatus = "error"
	CameraStatusDisconnected CameraStatus = "disconnected"
)

// Camera is a configured video source.
type Camera struct {
	ID               uuid.UUID                `json:"id" db:"id"`
	Name             string                   `json:"name" db:"name"`
	Type             CameraType               `json:"camera_type" db:"camera_type"`
	DeviceID         string                   `json:"device_id" db:"device_id"`
	RTSPURL          *string                  `json:"rtsp_url,omitempty" db:"rtsp_url"`
	Location         *valueobject.GeoLocation `json:"location,omitempty" db:"location"`
	Status           CameraStatus             `json:"status" db:"status"`
	ResolutionWidth  int32                    `json:"resolution_width" db:"resolution_width"`
	ResolutionHeight int32                    `json:"resolution_height" db:"resolution_height"`
	FPS              int32                    `json:"fps" db:"fps"`
	IsEnabled        bool                     `json:"is_enabled" db:"is_enabled"`
	LastFrameAt      *time.Time               `json:"last_frame_at,omitempty" db:"last_frame_at"`
	CreatedAt        time.Time                `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at" db:"updated_at"`
}

// NewCamera configures a new camera source at its default resolution and
// frame rate.
func NewCamera(name string, cameraType CameraType, deviceID string, rtspURL *string) *Camera {
	now := time.Now().UTC()
	return &Camera{
		ID:               uuid.New(),
		Name:             name,
		Type:             cameraType,
		DeviceID:         deviceID,
		RTSPURL:          rtspURL,
		Status:           CameraStatusInactive,
		ResolutionWidth:  1280,
		ResolutionHeight: 720,
		FPS:              30,
		IsEnabled:        true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewBuiltinCamera configures device 0 as the host's built-in camera.
func NewBuiltinCamera() *Camera {
	return NewCamera("Built-in Camera", CameraTypeBuiltin, "0", nil)
}

// SetStatus updates the connection status.
func (c *Camera) SetStatus(status CameraStatus) {
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
}

// UpdateLastFrame records that a frame was just captured, promoting the
// camera to active if it was not already.
func (c *Camera) UpdateLastFrame() {
	now := time.Now().UTC()
	c.LastFrameAt = &now
	if c.Status != CameraStatusActive {
		c.Status = CameraStatusActive
	}
}

// SetEnabled toggles whether the capture loop should run this camera.
// Disabling forces the status back to inactive.
func (c *Camera) SetEnabled(enabled bool) {
	c.IsEnabled = enabled
	if !enabled {
		c.Status = CameraStatusInactive
	}
	c.UpdatedAt = time.Now().UTC()
}

// SetLocation attaches a geographic location to the camera.
func (c *Camera) SetLocation(location valueobject.GeoLocation) {
	c.Location = &location
	c.UpdatedAt = time.Now().UTC()
}

// SetName renames the camera.
func (c *Camera) SetName(name string) {
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
}

// SetResolution updates the capture resolution.
func (c *Camera) SetResolution(width, height int32) {
	c.ResolutionWidth = width
	c.ResolutionHeight = height
	c.UpdatedAt = time.Now().UTC()
}

// SetFPS updates the target frame rate.
func (c *Camera) SetFPS(fps int32) {
	c.FPS = fps
	c.UpdatedAt = time.Now().UTC()
}
