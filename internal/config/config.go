package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	ServerURL      string
	SessionStore   string // sqlite | file | memory
	SessionPath    string
	RequestTimeout time.Duration
	UploadMaxWidth uint
	Host           string // console bind address
	Port           string
	LogFile        string
	LogLevel       string
	DemoBackend    bool
	DemoPassword   string
}

func Load() Config {
	// A missing .env is normal; anything else is worth a line.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env ignored: %v", err)
	}

	api := strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:4000/api"), "/")
	server := strings.TrimRight(getEnv("SERVER_URL", "http://localhost:4000"), "/")

	store := strings.ToLower(getEnv("SESSION_STORE", "sqlite"))
	switch store {
	case "sqlite", "file", "memory":
	default:
		log.Printf("[config] unknown SESSION_STORE=%q, using sqlite", store)
		store = "sqlite"
	}
	path := os.Getenv("SESSION_PATH")
	if path == "" {
		path = defaultSessionPath(store)
	}

	timeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	width, err := strconv.ParseUint(getEnv("UPLOAD_MAX_WIDTH", "800"), 10, 32)
	if err != nil {
		width = 800
	}
	port := getEnv("PORT", "8081")
	if _, err := strconv.Atoi(port); err != nil {
		port = "8081"
	}

	host := getEnv("HOST", "127.0.0.1")

	cfg := Config{
		APIBaseURL:     api,
		ServerURL:      server,
		SessionStore:   store,
		SessionPath:    path,
		RequestTimeout: timeout,
		UploadMaxWidth: uint(width),
		Host:           host,
		Port:           port,
		LogFile:        os.Getenv("LOG_FILE"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DemoBackend:    getEnv("DEMO_BACKEND", "false") == "true",
		DemoPassword:   getEnv("DEMO_ADMIN_PASSWORD", "espresso"),
	}
	log.Printf("[config] API_BASE_URL=%s SERVER_URL=%s SESSION_STORE=%s SESSION_PATH=%s HOST=%s PORT=%s",
		cfg.APIBaseURL, cfg.ServerURL, cfg.SessionStore, cfg.SessionPath, cfg.Host, cfg.Port)
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func defaultSessionPath(store string) string {
	dir := ".cafedesk"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".cafedesk")
	}
	if store == "file" {
		return filepath.Join(dir, "session.json")
	}
	return filepath.Join(dir, "session.db")
}
