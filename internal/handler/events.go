package handler

import (
	"net/http"
	"strconv"

	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/service"
	"kiosk/internal/service/preview"

	"github.com/gorilla/mux"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

type eventsResponse struct {
	Counts map[string]int      `json:"counts"`
	Events []model.EventRecord `json:"events"`
}

// EventsHandler returns journaled events, newest first, with ?limit=.
func EventsHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultEventLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxEventLimit)
		}

		records, err := manager.Journal().Recent(limit)
		if err != nil {
			logger.Error("Failed to read events: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to read events")
			return
		}
		counts, err := manager.Journal().Counts()
		if err != nil {
			logger.Error("Failed to count events: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to count events")
			return
		}
		writeJSON(w, http.StatusOK, eventsResponse{Counts: counts, Events: records})
	}
}

// SnapshotHandler returns the newest frame of a camera as a JPEG.
func SnapshotHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := manager.Preview().Snapshot(mux.Vars(r)["camera"])
		if err == preview.ErrNoFrame {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(data)
	}
}
