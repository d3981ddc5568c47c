package common

import "errors"

// Business logic errors
var (
	// General errors
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("forbidden")

	// Document errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrVersionNotFound  = errors.New("version not found")
	ErrEmptyContent     = errors.New("scraped content is empty")

	// Analysis errors
	ErrAnalysisNotFound   = errors.New("analysis result not found")
	ErrComparisonNotFound = errors.New("comparison not found")
	ErrAlreadyAnalyzed    = errors.New("comparison already analyzed")
	ErrAnalysisFailed     = errors.New("analysis failed")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)
