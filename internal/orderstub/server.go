package orderstub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"kiosk/internal/model"

	"github.com/gorilla/mux"
)

// Server is an in-memory stand-in for the ordering backend.
type Server struct {
	fixture *Fixture
	router  *mux.Router

	mu     sync.Mutex
	orders []model.OrderRequest
	nextID int64
}

// NewServer builds the stub routes around fixture.
func NewServer(fixture *Fixture) *Server {
	if fixture == nil {
		fixture = DefaultFixture()
	}
	s := &Server{fixture: fixture, nextID: 1000}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/user/barcode/{value}", s.userByBarcode).Methods(http.MethodGet)
	api.HandleFunc("/menu", s.menu).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.createOrder).Methods(http.MethodPost)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Orders returns the orders received so far.
func (s *Server) Orders() []model.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OrderRequest, len(s.orders))
	copy(out, s.orders)
	return out
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) userByBarcode(w http.ResponseWriter, r *http.Request) {
	value := mux.Vars(r)["value"]
	for _, u := range s.fixture.Users {
		if u.ID == value || u.Username == value || (u.BarcodeID != "" && u.BarcodeID == value) {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "user not found"})
}

func (s *Server) menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fixture.Menu)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, model.OrderReceipt{Message: "invalid order"})
		return
	}
	if req.UserID == "" || len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, model.OrderReceipt{Message: "userId and items are required"})
		return
	}

	s.mu.Lock()
	s.orders = append(s.orders, req)
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.OrderReceipt{Success: true, OrderID: id})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
