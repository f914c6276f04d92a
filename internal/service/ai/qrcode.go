package ai

import (
	"sync"

	"kiosk/internal/model"

	"gocv.io/x/gocv"
)

// QRCodeDecoder decodes a single QR code per frame with OpenCV.
type QRCodeDecoder struct {
	detector gocv.QRCodeDetector
	mutex    sync.Mutex
}

// NewQRCodeDecoder creates the OpenCV QR detector.
func NewQRCodeDecoder() *QRCodeDecoder {
	return &QRCodeDecoder{detector: gocv.NewQRCodeDetector()}
}

// Decode returns the QR code found in the frame, if any.
func (d *QRCodeDecoder) Decode(frame model.Frame) ([]model.Barcode, error) {
	mat, err := frameMat(frame)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	points := gocv.NewMat()
	defer points.Close()
	straight := gocv.NewMat()
	defer straight.Close()

	d.mutex.Lock()
	value := d.detector.DetectAndDecode(mat, &points, &straight)
	d.mutex.Unlock()

	if value == "" {
		return nil, nil
	}
	return []model.Barcode{{Value: value, Symbology: "QR_CODE"}}, nil
}

// Close frees the detector.
func (d *QRCodeDecoder) Close() error {
	return d.detector.Close()
}
