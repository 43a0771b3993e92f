// Package server exposes the mutation engine over HTTP: batch execution,
// tree and node reads, undo, and a websocket feed that tells connected
// renderers when the document changed.
package server

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the server settings, loaded from the environment.
type Config struct {
	Addr     string // listen address
	DBPath   string // undo snapshot database, empty for in-memory history
	DocPath  string // document file to load and save
	LogLevel string
}

// LoadConfig reads configuration from the environment, optionally loading
// an env file first. Missing variables fall back to defaults.
func LoadConfig(envfile string) Config {
	if envfile != "" {
		// A missing env file is fine; the environment may be set directly.
		_ = godotenv.Load(envfile)
	}
	return Config{
		Addr:     getEnv("SKETCHFLOW_ADDR", ":8080"),
		DBPath:   getEnv("SKETCHFLOW_DB", ""),
		DocPath:  getEnv("SKETCHFLOW_DOC", "document.json"),
		LogLevel: getEnv("SKETCHFLOW_LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// NewLogger builds the console logger used across the server.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}
