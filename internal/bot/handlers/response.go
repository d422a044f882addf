package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

func SuccessResponse(message string) gin.H {
	return gin.H{
		"success":   true,
		"info":      message,
		"timestamp": time.Now().UTC(),
	}
}

func ErrorResponse(code string, message string) gin.H {
	return gin.H{
		"success":   false,
		"error":     code,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}
}
