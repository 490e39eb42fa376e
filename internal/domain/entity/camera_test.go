package entity

import "testing"

func TestBuiltinCameraHasCorrectType(t *testing.T) {
	c := NewBuiltinCamera()
	if c.Type != CameraTypeBuiltin {
		t.Fatalf("expected builtin, got %v", c.Type)
	}
	if c.Name != "Built-in Camera" {
		t.Fatalf("unexpected name: %v", c.Name)
	}
}

func TestNewCameraIsInactive(t *testing.T) {
	c := NewBuiltinCamera()
	if c.Status != CameraStatusInactive {
		t.Fatalf("expected inactive, got %v", c.Status)
	}
}

func TestUpdateLastFrameSetsActive(t *testing.T) {
	c := NewBuiltinCamera()
	c.UpdateLastFrame()
	if c.Status != CameraStatusActive {
		t.Fatalf("expected active, got %v", c.Status)
	}
	if c.LastFrameAt == nil {
		t.Fatal("expected last frame time to be set")
	}
}

func TestDisableCameraSetsInactive(t *testing.T) {
	c := NewBuiltinCamera()
	c.UpdateLastFrame()
	c.SetEnabled(false)
	if c.Status != CameraStatusInactive {
		t.Fatalf("expected inactive, got %v", c.Status)
	}
	if c.IsEnabled {
		t.Fatal("expected disabled")
	}
}
