package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog zerolog.Logger

func init() {
	// Sensible default so packages can log before InitStructured runs
	// (tests, init-order edge cases).
	zlog = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// InitStructured initializes the structured zerolog logger
func InitStructured(env string) {
	var w io.Writer

	if env == "development" || env == "dev" || env == "local" {
		// Pretty console output for development
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	} else {
		// JSON output for production (machine-readable)
		w = os.Stdout
	}

	zlog = zerolog.New(w).With().
		Timestamp().
		Str("service", "policywatch-backend").
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithDocumentID returns a logger with document_id field
func WithDocumentID(documentID uint64) zerolog.Logger {
	return zlog.With().Uint64("document_id", documentID).Logger()
}

// WithRunID returns a logger with analysis run_id field
func WithRunID(runID string) zerolog.Logger {
	return zlog.With().Str("run_id", runID).Logger()
}
