package camera

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"kiosk/internal/capture"
	"kiosk/internal/config"
	"kiosk/internal/logger"
	"kiosk/internal/model"

	"gocv.io/x/gocv"
)

// Opener opens local V4L/DirectShow cameras through OpenCV. Each device index
// can be held by one Source at a time.
type Opener struct {
	registry *capture.DeviceRegistry
	width    int
	height   int
	logger   *logger.Logger
}

// NewOpener creates an opener claiming devices in registry.
func NewOpener(config *config.Config, logger *logger.Logger, registry *capture.DeviceRegistry) *Opener {
	if registry == nil {
		registry = capture.NewDeviceRegistry()
	}
	return &Opener{
		registry: registry,
		width:    config.CameraWidth,
		height:   config.CameraHeight,
		logger:   logger.Named("camera"),
	}
}

// Registry returns the device registry used by the opener.
func (o *Opener) Registry() *capture.DeviceRegistry {
	return o.registry
}

// Open claims and opens a camera. The device is released again if OpenCV
// cannot open it.
func (o *Opener) Open(device int) (capture.FrameSource, error) {
	release, err := o.registry.Acquire(device, "camera-"+strconv.Itoa(device))
	if err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to open camera %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		release()
		return nil, fmt.Errorf("camera %d did not open", device)
	}

	if o.width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(o.width))
	}
	if o.height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(o.height))
	}

	o.logger.Info("Opened camera %d (%.0fx%.0f)", device,
		vc.Get(gocv.VideoCaptureFrameWidth), vc.Get(gocv.VideoCaptureFrameHeight))

	return &Source{
		device:  device,
		capture: vc,
		mat:     gocv.NewMat(),
		release: release,
		logger:  o.logger,
	}, nil
}

// Source is one opened camera. Read and Close must be called from the
// goroutine that owns it.
type Source struct {
	device  int
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     uint64
	release func()
	logger  *logger.Logger
	once    sync.Once
}

// Read grabs the next frame and copies it out of OpenCV memory.
func (s *Source) Read() (model.Frame, error) {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return model.Frame{}, capture.ErrFrameUnavailable
	}
	capturedAt := time.Now()

	if s.mat.Channels() != 3 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		code := gocv.ColorGrayToBGR
		if s.mat.Channels() == 4 {
			code = gocv.ColorBGRAToBGR
		}
		if err := gocv.CvtColor(s.mat, &bgr, code); err != nil {
			return model.Frame{}, fmt.Errorf("%w: %v", capture.ErrFrameUnavailable, err)
		}
		return s.frame(bgr, capturedAt), nil
	}
	return s.frame(s.mat, capturedAt), nil
}

func (s *Source) frame(mat gocv.Mat, capturedAt time.Time) model.Frame {
	f := model.Frame{
		Seq:        s.seq,
		CapturedAt: capturedAt,
		Width:      mat.Cols(),
		Height:     mat.Rows(),
		Data:       mat.ToBytes(),
	}
	s.seq++
	return f
}

// Close releases the capture handle and frees the device index.
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		s.mat.Close()
		err = s.capture.Close()
		s.release()
		s.logger.Info("Released camera %d", s.device)
	})
	return err
}
