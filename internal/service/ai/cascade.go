package ai

import (
	"fmt"
	"image"
	"os"
	"sync"

	"kiosk/internal/capture"
	"kiosk/internal/logger"
	"kiosk/internal/model"

	"gocv.io/x/gocv"
)

// CascadeDetector finds frontal faces with a Haar cascade.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	mutex      sync.Mutex
	logger     *logger.Logger
}

// NewCascadeDetector loads the cascade XML at path.
func NewCascadeDetector(path string, logger *logger.Logger) (*CascadeDetector, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade: %s", path)
	}

	logger.Info("Face cascade loaded from %s", path)
	return &CascadeDetector{classifier: classifier, logger: logger}, nil
}

// DetectFaces runs multi-scale detection on the grayscale frame.
func (d *CascadeDetector) DetectFaces(frame model.Frame, params capture.FaceParams) ([]model.DetectionBox, error) {
	gray, err := grayMat(frame)
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	d.mutex.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(gray, params.ScaleFactor, params.MinNeighbors, 0, params.MinSize, image.Point{})
	d.mutex.Unlock()

	boxes := make([]model.DetectionBox, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, model.BoxFromRect(r))
	}
	return boxes, nil
}

// Close frees the classifier.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}
