// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration knobs for the HTTP server, the spreadsheet
// source, the product cache, and the image-folder watch pipeline.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	SheetID       string
	SheetRange    string
	ServiceKeyB64 string
	CacheTTL      time.Duration

	PublicDir string
	ImagesDir string

	WatchDebounce time.Duration

	ImgUpstreamBase string

	WSAllowedOrigins []string

	OTLPEndpoint string
	ServiceName  string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func listenv(key string) []string {
	v := getenv(key, "")
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:         ":" + getenv("PORT", "8080"),
		ShutdownTimeout:  durenvs("SHUTDOWN_TIMEOUT", 15),
		SheetID:          getenv("SHEET_ID", ""),
		SheetRange:       getenv("SHEET_RANGE", "Produk!A2:D"),
		ServiceKeyB64:    getenv("GOOGLE_SERVICE_KEY_B64", ""),
		CacheTTL:         durenvms("CACHE_TTL_MS", 60000),
		PublicDir:        getenv("PUBLIC_DIR", "public"),
		ImagesDir:        getenv("IMAGES_DIR", "public/images"),
		WatchDebounce:    durenvms("WATCH_DEBOUNCE_MS", 200),
		ImgUpstreamBase:  getenv("IMG_UPSTREAM_BASE", "https://drive.google.com/uc?export=view&id="),
		WSAllowedOrigins: listenv("WS_ALLOWED_ORIGINS"),
		OTLPEndpoint:     getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:      getenv("OTEL_SERVICE_NAME", "katalog"),
	}
}
