package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kiosk/internal/logger"
	"kiosk/internal/model"
	"kiosk/internal/service"
	"kiosk/internal/service/order"
)

// CurrentUserHandler returns the identified user or 404.
func CurrentUserHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := manager.Coordinator().CurrentUser()
		if !ok {
			writeError(w, http.StatusNotFound, order.ErrNoCurrentUser.Error())
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

// LogoutUserHandler forgets the identified user.
func LogoutUserHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !manager.Coordinator().Logout() {
			writeError(w, http.StatusNotFound, order.ErrNoCurrentUser.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MenuHandler proxies the menu of the ordering service.
func MenuHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		menu, err := manager.Coordinator().Menu(r.Context())
		if err != nil {
			logger.Error("Failed to fetch menu: %v", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, menu)
	}
}

type orderRequest struct {
	Items []model.OrderItem `json:"items"`
}

// CreateOrderHandler places an order for the identified user.
func CreateOrderHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid order body")
			return
		}
		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, "order has no items")
			return
		}

		receipt, err := manager.Coordinator().PlaceOrder(r.Context(), req.Items)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, receipt)
		case errors.Is(err, order.ErrNoCurrentUser):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, order.ErrUnavailable):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			logger.Warning("Order rejected: %v", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		}
	}
}

// OrderHealthHandler reports whether the ordering service is reachable.
func OrderHealthHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := manager.Coordinator().CheckConnection(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
