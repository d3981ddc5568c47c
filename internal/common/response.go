package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination metadata
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// NewMeta creates Meta with computed total_pages
func NewMeta(page, perPage int, total int64) *Meta {
	totalPages := total / int64(perPage)
	if total%int64(perPage) > 0 {
		totalPages++
	}
	return &Meta{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// SuccessWithMeta returns a successful JSON response with pagination
func SuccessWithMeta(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: meta})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	info := &ErrorInfo{
		Code:    errorCode(status),
		Message: message,
	}
	if err != nil {
		info.Details = err.Error()
	}
	c.JSON(status, APIResponse{Success: false, Error: info})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
