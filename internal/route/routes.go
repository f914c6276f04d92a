package route

import (
	"net/http"
	"os"
	"path/filepath"

	"kiosk/internal/handler"
	"kiosk/internal/logger"
	"kiosk/internal/middleware"
	"kiosk/internal/service"

	"github.com/gorilla/mux"
)

// StaticDir holds the kiosk and operator pages.
const StaticDir = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(StaticDir, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers the kiosk API, the operator endpoints behind the
// authentication middleware, log endpoints and static pages.
func SetupRoutes(manager *service.Manager, password string, logger *logger.Logger) http.Handler {
	log := logger.Named("http")
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(StaticDir))))

	// Kiosk API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/view", handler.ViewWebsocketHandler(manager, log))
	api.HandleFunc("/status", handler.StatusHandler(manager)).Methods(http.MethodGet)
	api.HandleFunc("/scans", handler.ScansHandler(manager)).Methods(http.MethodGet)
	api.HandleFunc("/user", handler.CurrentUserHandler(manager)).Methods(http.MethodGet)
	api.HandleFunc("/menu", handler.MenuHandler(manager, log)).Methods(http.MethodGet)
	api.HandleFunc("/orders", handler.CreateOrderHandler(manager, log)).Methods(http.MethodPost)
	api.HandleFunc("/orders/health", handler.OrderHealthHandler(manager)).Methods(http.MethodGet)
	api.HandleFunc("/events", handler.EventsHandler(manager, log)).Methods(http.MethodGet)
	api.HandleFunc("/preview/{camera}", handler.SnapshotHandler(manager)).Methods(http.MethodGet)

	// Operator API
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.HandleFunc("/monitors/{name}/start", handler.StartMonitorHandler(manager, log)).Methods(http.MethodPost)
	admin.HandleFunc("/monitors/{name}/stop", handler.StopMonitorHandler(manager, log)).Methods(http.MethodPost)
	admin.HandleFunc("/scans/clear", handler.ClearScansHandler(manager)).Methods(http.MethodPost)
	admin.HandleFunc("/scans/image", handler.ScanImageHandler(manager, log)).Methods(http.MethodPost)
	admin.HandleFunc("/user", handler.LogoutUserHandler(manager)).Methods(http.MethodDelete)

	// Log endpoints
	logs := r.PathPrefix("/logs").Subrouter()
	logs.Use(middleware.AuthMiddleware)
	logs.HandleFunc("/{level}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	logs.HandleFunc("/{level}/clear", handler.ClearLogsHandler(logger)).Methods(http.MethodPost)

	// Auth endpoints
	r.HandleFunc("/auth/login", handler.LoginHandler(password, log)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /settings -> /static/settings.html
	r.PathPrefix("/").HandlerFunc(dynamicHTMLHandler)

	return r
}
