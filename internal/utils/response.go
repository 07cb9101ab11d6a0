package utils

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response defines the standard API response envelope.
type Response struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// ErrorInfo provides details for error responses.
type ErrorInfo struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Field          string `json:"field,omitempty"`
	AvailableStock *int   `json:"available_stock,omitempty"`
}

// Meta contains request-scoped metadata.
type Meta struct {
	RequestID  string      `json:"request_id"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Success writes a success response with the standard envelope.
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// SuccessWithPagination writes a success response with pagination metadata.
func SuccessWithPagination(c *gin.Context, code int, message string, data interface{}, page, limit, totalItems int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	meta := newMeta(c)
	meta.Pagination = &Pagination{
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: (totalItems + limit - 1) / limit,
	}
	c.JSON(code, Response{
		Success: true,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    meta,
	})
}

// Batch writes a per-item batch outcome. A batch where nothing succeeded is
// reported as 400 with the item results still in data.
func Batch(c *gin.Context, ok bool, message string, data interface{}) {
	code := 200
	if !ok {
		code = 400
	}
	c.JSON(code, Response{
		Success: ok,
		Code:    code,
		Message: message,
		Data:    data,
		Meta:    newMeta(c),
	})
}

// Error writes an error response with provided API error code and message.
func Error(c *gin.Context, code int, errCode, message string) {
	ErrorWithInfo(c, code, &ErrorInfo{Code: errCode, Message: message})
}

// ErrorWithInfo writes an error response carrying a full ErrorInfo.
func ErrorWithInfo(c *gin.Context, code int, info *ErrorInfo) {
	c.JSON(code, Response{
		Success: false,
		Code:    code,
		Message: info.Message,
		Error:   info,
		Meta:    newMeta(c),
	})
}

// ErrorInfoFrom converts an AppError to its wire form.
func ErrorInfoFrom(e *AppError) *ErrorInfo {
	return &ErrorInfo{
		Code:           e.Code,
		Message:        e.Message,
		Field:          e.Field,
		AvailableStock: e.AvailableStock,
	}
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(e *AppError) int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindConflict:
		// update_stock clients expect 400 with available_stock on a short OUT.
		if e.Code == ErrInsufficientStock.Code {
			return 400
		}
		return 409
	case KindNotFound:
		return 404
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	}
	return 500
}

func newMeta(c *gin.Context) Meta {
	return Meta{
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}
