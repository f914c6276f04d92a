package handler

import (
	"errors"
	"net/http"

	"kiosk/internal/capture"
	"kiosk/internal/logger"
	"kiosk/internal/service"
	"kiosk/internal/service/monitor"

	"github.com/gorilla/mux"
)

// StatusHandler returns the kiosk status summary.
func StatusHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, manager.Status())
	}
}

// StartMonitorHandler starts the monitor named in the path.
func StartMonitorHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		err := manager.StartMonitor(name)
		switch {
		case err == nil:
			logger.Info("Monitor %s started via API", name)
			writeJSON(w, http.StatusOK, manager.Status())
		case errors.Is(err, service.ErrUnknownMonitor):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, monitor.ErrAlreadyRunning), errors.Is(err, capture.ErrDeviceBusy):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
	}
}

// StopMonitorHandler stops the monitor named in the path and waits for it.
func StopMonitorHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		if err := manager.StopMonitor(name); err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Info("Monitor %s stopped via API", name)
		writeJSON(w, http.StatusOK, manager.Status())
	}
}
