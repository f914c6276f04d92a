package model

import "image"

// DetectionBox is a rectangle reported by a detector. Boxes carry no identity
// between frames.
type DetectionBox struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Score  float64 `json:"score,omitempty"`
}

// BoxFromRect converts an image rectangle to a DetectionBox.
func BoxFromRect(r image.Rectangle) DetectionBox {
	return DetectionBox{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Barcode is a single decoded symbol.
type Barcode struct {
	Value     string       `json:"value"`
	Symbology string       `json:"symbology"`
	Box       DetectionBox `json:"box"`
}
