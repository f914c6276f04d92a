package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	Password string

	LogDirectory string

	PresenceCamera    int
	BarcodeCamera     int
	CameraWidth       int
	CameraHeight      int
	PollInterval      time.Duration
	MaxReadFailures   int // Kolejne nieudane odczyty przed zdarzeniem read_degraded (0 = wyłączone)
	AutoStartMonitors bool

	FaceDetector      string // cascade | dnn
	FaceCascadePath   string
	FaceModelPath     string
	FaceConfigPath    string
	FaceConfidence    float64
	FaceScaleFactor   float64
	FaceMinNeighbors  int
	FaceMinSize       int
	DetectionCooldown time.Duration
	PresencePolicy    string // edge | periodic

	BarcodeDecoder string // zxing | opencv

	OrderAPIURL        string
	OrderAPITimeout    time.Duration
	OrderUIURL         string
	SessionOpenCommand string

	Notifier       string // console | command | none
	NotifyCommand  string
	WelcomeMessage string

	PreviewWidth         int
	PreviewInterval      time.Duration
	EventBuffer          int
	JournalFlushInterval time.Duration
}

// Load reads envFile (if it exists) into the process environment and builds the
// configuration from environment variables. Variables already set win over the file.
func Load(envFile string) *Config {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		}
	}

	return &Config{
		Port:     getEnvAsInt("PORT", 8080),
		Password: getEnv("PASSWORD", "kiosk"),

		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		PresenceCamera:    getEnvAsInt("PRESENCE_CAMERA", 0),
		BarcodeCamera:     getEnvAsInt("BARCODE_CAMERA", 1),
		CameraWidth:       getEnvAsInt("CAMERA_WIDTH", 640),
		CameraHeight:      getEnvAsInt("CAMERA_HEIGHT", 480),
		PollInterval:      getEnvAsMillis("POLL_INTERVAL_MS", 100),
		MaxReadFailures:   getEnvAsInt("MAX_READ_FAILURES", 30),
		AutoStartMonitors: getEnvAsBool("AUTOSTART", true),

		FaceDetector:      getEnv("FACE_DETECTOR", "cascade"),
		FaceCascadePath:   getEnv("FACE_CASCADE_PATH", filepath.Join(".", "models", "haarcascade_frontalface_default.xml")),
		FaceModelPath:     getEnv("FACE_MODEL_PATH", filepath.Join(".", "models", "res10_300x300_ssd_iter_140000.caffemodel")),
		FaceConfigPath:    getEnv("FACE_CONFIG_PATH", filepath.Join(".", "models", "deploy.prototxt")),
		FaceConfidence:    getEnvAsFloat("FACE_CONFIDENCE", 0.5),
		FaceScaleFactor:   getEnvAsFloat("FACE_SCALE_FACTOR", 1.1),
		FaceMinNeighbors:  getEnvAsInt("FACE_MIN_NEIGHBORS", 5),
		FaceMinSize:       getEnvAsInt("FACE_MIN_SIZE", 30),
		DetectionCooldown: getEnvAsSeconds("DETECTION_COOLDOWN", 3.0),
		PresencePolicy:    strings.ToLower(getEnv("PRESENCE_POLICY", "edge")),

		BarcodeDecoder: strings.ToLower(getEnv("BARCODE_DECODER", "zxing")),

		OrderAPIURL:        strings.TrimRight(getEnv("ORDER_API_URL", "http://localhost:3001"), "/"),
		OrderAPITimeout:    getEnvAsSeconds("ORDER_API_TIMEOUT", 5),
		OrderUIURL:         getEnv("ORDER_UI_URL", "http://localhost:3000"),
		SessionOpenCommand: getEnv("SESSION_OPEN_COMMAND", ""),

		Notifier:       strings.ToLower(getEnv("NOTIFIER", "console")),
		NotifyCommand:  getEnv("NOTIFY_COMMAND", "paplay /usr/share/sounds/freedesktop/stereo/complete.oga"),
		WelcomeMessage: getEnv("WELCOME_MESSAGE", "Welcome! Nice to see you!"),

		PreviewWidth:         getEnvAsInt("PREVIEW_WIDTH", 320),
		PreviewInterval:      getEnvAsMillis("PREVIEW_INTERVAL_MS", 200),
		EventBuffer:          getEnvAsInt("EVENT_BUFFER", 64),
		JournalFlushInterval: getEnvAsSeconds("JOURNAL_FLUSH_INTERVAL", 5),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds reads a (possibly fractional) number of seconds.
func getEnvAsSeconds(key string, defaultSeconds float64) time.Duration {
	return time.Duration(getEnvAsFloat(key, defaultSeconds) * float64(time.Second))
}

func getEnvAsMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMillis)) * time.Millisecond
}
