package capture

import (
	"errors"
	"image"

	"kiosk/internal/model"
)

var (
	// ErrDeviceBusy is returned when a camera index already has an owner.
	ErrDeviceBusy = errors.New("camera device already in use")
	// ErrFrameUnavailable marks a single failed frame read.
	ErrFrameUnavailable = errors.New("frame unavailable")
)

// FrameSource owns one opened camera handle.
type FrameSource interface {
	// Read grabs the next frame. ErrFrameUnavailable means the read can be retried.
	Read() (model.Frame, error)

	// Close releases the device. Calling it more than once is allowed.
	Close() error
}

// Opener opens camera devices by index.
type Opener interface {
	Open(device int) (FrameSource, error)
}

// FaceParams controls multi-scale face detection.
type FaceParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// FaceDetector finds faces in a frame.
type FaceDetector interface {
	DetectFaces(frame model.Frame, params FaceParams) ([]model.DetectionBox, error)
}

// BarcodeDecoder finds and decodes barcodes in a frame.
type BarcodeDecoder interface {
	Decode(frame model.Frame) ([]model.Barcode, error)
}
