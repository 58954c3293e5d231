package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MessageResponse 统一的消息 / 错误结构，与旧版前端约定一致
type MessageResponse struct {
	Message string `json:"message"`
}

// Success 200 响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201 响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Message 只返回一句提示
func Message(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, MessageResponse{Message: msg})
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, MessageResponse{Message: msg})
}

// Abort 中间件里使用，终止后续 handler
func Abort(c *gin.Context, httpStatus int, msg string) {
	c.AbortWithStatusJSON(httpStatus, MessageResponse{Message: msg})
}
