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

// DNNDetector finds faces with the res10 300x300 SSD network.
type DNNDetector struct {
	net        gocv.Net
	confidence float32
	mutex      sync.Mutex
	logger     *logger.Logger
}

// NewDNNDetector loads the network and sets backend/target preferences.
func NewDNNDetector(modelPath, configPath string, confidence float64, logger *logger.Logger) (*DNNDetector, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network")
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Face detection network initialized successfully")
	return &DNNDetector{net: net, confidence: float32(confidence), logger: logger}, nil
}

// DetectFaces runs the network and keeps boxes above the confidence
// threshold that are at least params.MinSize large.
func (d *DNNDetector) DetectFaces(frame model.Frame, params capture.FaceParams) ([]model.DetectionBox, error) {
	mat, err := frameMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(300, 300), gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	d.mutex.Lock()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	d.mutex.Unlock()
	defer output.Close()

	// rows of [batch_id, class_id, confidence, x1, y1, x2, y2]
	detections := output.Reshape(1, output.Total()/7)
	defer detections.Close()

	cols, rows := float32(mat.Cols()), float32(mat.Rows())
	var boxes []model.DetectionBox
	for i := 0; i < detections.Rows(); i++ {
		confidence := detections.GetFloatAt(i, 2)
		if confidence < d.confidence {
			continue
		}
		x := int(detections.GetFloatAt(i, 3) * cols)
		y := int(detections.GetFloatAt(i, 4) * rows)
		width := int(detections.GetFloatAt(i, 5)*cols) - x
		height := int(detections.GetFloatAt(i, 6)*rows) - y
		if width < params.MinSize.X || height < params.MinSize.Y {
			continue
		}
		boxes = append(boxes, model.DetectionBox{
			X:      x,
			Y:      y,
			Width:  width,
			Height: height,
			Score:  float64(confidence),
		})
	}
	return boxes, nil
}

// Close frees the network.
func (d *DNNDetector) Close() error {
	return d.net.Close()
}
