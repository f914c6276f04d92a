package barcode

import (
	"strings"
	"sync"

	"kiosk/internal/model"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder reads QR codes and the common 1D symbologies (EAN, UPC, Code 39,
// Code 93, Code 128, ITF, Codabar) with a pure Go ZXing port.
type Decoder struct {
	matrix []gozxing.Reader
	// tried in order, the first hit wins, as ZXing's multi-format 1D reader does
	linear []gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
	mutex  sync.Mutex
}

// NewDecoder creates a decoder. tryHarder trades speed for accuracy on
// blurry or small codes.
func NewDecoder(tryHarder bool) *Decoder {
	hints := map[gozxing.DecodeHintType]interface{}{}
	if tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	return &Decoder{
		matrix: []gozxing.Reader{qrcode.NewQRCodeReader()},
		linear: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(hints),
			oned.NewCode39Reader(),
			oned.NewCode93Reader(),
			oned.NewCode128Reader(),
			oned.NewITFReader(),
			oned.NewCodaBarReader(),
		},
		hints: hints,
	}
}

// Decode returns every symbol found in the frame. A frame without a
// readable code is not an error.
func (d *Decoder) Decode(frame model.Frame) ([]model.Barcode, error) {
	if frame.Empty() {
		return nil, nil
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(frame.Gray())
	if err != nil {
		return nil, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	var codes []model.Barcode
	for _, reader := range d.matrix {
		if code, ok := d.read(reader, bmp); ok {
			codes = append(codes, code)
		}
	}
	for _, reader := range d.linear {
		if code, ok := d.read(reader, bmp); ok {
			codes = append(codes, code)
			break
		}
	}
	return codes, nil
}

func (d *Decoder) read(reader gozxing.Reader, bmp *gozxing.BinaryBitmap) (model.Barcode, bool) {
	result, err := reader.Decode(bmp, d.hints)
	reader.Reset()
	if err != nil {
		// not found, checksum and format errors all mean no code
		return model.Barcode{}, false
	}
	return model.Barcode{
		Value:     strings.TrimSpace(result.GetText()),
		Symbology: result.GetBarcodeFormat().String(),
		Box:       boundingBox(result.GetResultPoints()),
	}, true
}

func boundingBox(points []gozxing.ResultPoint) model.DetectionBox {
	if len(points) == 0 {
		return model.DetectionBox{}
	}
	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.GetX()), max(maxX, p.GetX())
		minY, maxY = min(minY, p.GetY()), max(maxY, p.GetY())
	}
	return model.DetectionBox{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
