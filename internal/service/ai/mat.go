package ai

import (
	"fmt"

	"kiosk/internal/model"

	"gocv.io/x/gocv"
)

// frameMat wraps a BGR24 frame in a Mat. The caller must Close it.
func frameMat(frame model.Frame) (gocv.Mat, error) {
	if frame.Empty() {
		return gocv.NewMat(), fmt.Errorf("frame is empty")
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build mat: %v", err)
	}
	return mat, nil
}

// grayMat converts a frame to a single-channel Mat.
func grayMat(frame model.Frame) (gocv.Mat, error) {
	mat, err := frameMat(frame)
	if err != nil {
		return mat, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray); err != nil {
		gray.Close()
		return gocv.NewMat(), fmt.Errorf("failed to convert image to grayscale: %v", err)
	}
	return gray, nil
}
