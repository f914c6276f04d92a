package model

import (
	"image"
	"image/color"
	"time"
)

// Frame is a single captured image in packed BGR24 layout. After a monitor
// hands a Frame to a consumer the Data slice must not be written again.
type Frame struct {
	Source     string
	Seq        uint64
	CapturedAt time.Time
	Width      int
	Height     int
	Data       []byte
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0 || len(f.Data) < f.Width*f.Height*3
}

// Gray converts the frame to an 8-bit luminance image.
func (f Frame) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	if f.Empty() {
		return img
	}
	for i := 0; i < f.Width*f.Height; i++ {
		b := int(f.Data[i*3])
		g := int(f.Data[i*3+1])
		r := int(f.Data[i*3+2])
		// ITU-R BT.601 weights, same as OpenCV's BGR2GRAY
		img.Pix[i] = uint8((299*r + 587*g + 114*b + 500) / 1000)
	}
	return img
}

// Image converts the frame to an NRGBA image for encoding.
func (f Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	if f.Empty() {
		return img
	}
	for i := 0; i < f.Width*f.Height; i++ {
		img.Pix[i*4] = f.Data[i*3+2]
		img.Pix[i*4+1] = f.Data[i*3+1]
		img.Pix[i*4+2] = f.Data[i*3]
		img.Pix[i*4+3] = 0xFF
	}
	return img
}

// FrameFromImage packs any image into a BGR24 frame.
func FrameFromImage(source string, img image.Image, capturedAt time.Time) Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*w + x) * 3
			data[i] = c.B
			data[i+1] = c.G
			data[i+2] = c.R
		}
	}
	return Frame{
		Source:     source,
		CapturedAt: capturedAt,
		Width:      w,
		Height:     h,
		Data:       data,
	}
}
