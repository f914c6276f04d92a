package camera

import (
	"errors"
	"testing"

	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

func TestOpener_BusyDeviceIsNotOpened(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir(), CameraWidth: 640, CameraHeight: 480}
	registry := capture.NewDeviceRegistry()
	opener := NewOpener(cfg, logger.NewLogger(cfg), registry)

	release, err := registry.Acquire(7, "someone-else")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	if _, err := opener.Open(7); !errors.Is(err, capture.ErrDeviceBusy) {
		t.Errorf("Expected ErrDeviceBusy, got %v", err)
	}
	if owner, _ := registry.Owner(7); owner != "someone-else" {
		t.Errorf("Busy open must not steal the device, owner is %q", owner)
	}
}

func TestOpener_MissingDeviceReleasesClaim(t *testing.T) {
	cfg := &config.Config{LogDirectory: t.TempDir()}
	opener := NewOpener(cfg, logger.NewLogger(cfg), nil)

	src, err := opener.Open(97)
	if err == nil {
		src.Close()
		t.Skip("camera 97 exists on this machine")
	}
	if inUse := opener.Registry().InUse(); len(inUse) != 0 {
		t.Errorf("Failed open left devices claimed: %v", inUse)
	}
}
