package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/service"

	"github.com/disintegration/imaging"
)

// MaxUploadSize bounds still images posted for decoding.
const MaxUploadSize = 10 << 20

type scansResponse struct {
	Count   int                `json:"count"`
	Results []model.ScanResult `json:"results"`
}

// ScansHandler lists stored scan results, oldest first, or newest first with
// ?order=recent.
func ScansHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var results []model.ScanResult
		if r.URL.Query().Get("order") == "recent" {
			results = manager.Store().Recent()
		} else {
			results = manager.Store().Snapshot()
		}
		writeJSON(w, http.StatusOK, scansResponse{Count: len(results), Results: results})
	}
}

// ClearScansHandler empties the scan store.
func ClearScansHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n := manager.ClearScans()
		writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
	}
}

type imageScanResponse struct {
	Added []model.ScanResult `json:"added"`
	Count int                `json:"count"`
}

// ScanImageHandler decodes barcodes in an uploaded still image. The image is
// either the "image" field of a multipart form or the raw request body.
// New values go through the same store and events as camera scans.
func ScanImageHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			file, _, err := r.FormFile("image")
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing image field")
				return
			}
			defer file.Close()
			src = file
		}

		img, err := imaging.Decode(src, imaging.AutoOrientation(true))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unsupported or corrupt image")
			return
		}

		added, err := manager.ScanImage(model.FrameFromImage("upload", img, time.Now()))
		if errors.Is(err, service.ErrNoScanner) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			logger.Error("Decoding uploaded image failed: %v", err)
			writeError(w, http.StatusUnprocessableEntity, "barcode decoding failed")
			return
		}

		if added == nil {
			added = []model.ScanResult{}
		}
		writeJSON(w, http.StatusOK, imageScanResponse{Added: added, Count: manager.Store().Len()})
	}
}
