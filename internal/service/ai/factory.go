package ai

import (
	"fmt"
	"io"
	"strings"

	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

// FaceDetector is a capture.FaceDetector holding native resources.
type FaceDetector interface {
	capture.FaceDetector
	io.Closer
}

// NewFaceDetector builds the detector selected by FACE_DETECTOR.
func NewFaceDetector(config *config.Config, logger *logger.Logger) (FaceDetector, error) {
	log := logger.Named("face")
	switch strings.ToLower(config.FaceDetector) {
	case "", "cascade":
		return NewCascadeDetector(config.FaceCascadePath, log)
	case "dnn":
		return NewDNNDetector(config.FaceModelPath, config.FaceConfigPath, config.FaceConfidence, log)
	default:
		return nil, fmt.Errorf("unknown face detector %q", config.FaceDetector)
	}
}
