package util

import (
	"net/http"

	"lingo_edu_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构 {success, data?, error?}
// swagger:model Response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Status  string      `json:"status,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// 错误码
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeModuleNotFound     = "MODULE_NOT_FOUND"
	CodeModuleUnlocked     = "MODULE_ALREADY_UNLOCKED"
	CodeTopicNotFound      = "TOPIC_NOT_FOUND"
	CodeAssessmentNotFound = "ASSESSMENT_NOT_FOUND"
	CodePaymentInvalid     = "PAYMENT_INVALID"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Processing 结果尚在处理中的轮询响应
func Processing(c *gin.Context, message string) {
	c.JSON(http.StatusAccepted, Response{Success: true, Status: "processing", Message: message})
}

func Complete(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Status: "complete", Data: data})
}

func Fail(c *gin.Context, httpStatus int, code, message string) {
	c.JSON(httpStatus, Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message},
	})
}

func FailWithDetails(c *gin.Context, httpStatus int, code, message string, details interface{}) {
	c.JSON(httpStatus, Response{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, CodeValidation, message)
}

func Unauthorized(c *gin.Context) {
	Fail(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Fail(c, http.StatusForbidden, CodeForbidden, "Forbidden")
}

func NotFound(c *gin.Context, code, message string) {
	Fail(c, http.StatusNotFound, code, message)
}

func InternalServerError(c *gin.Context) {
	Fail(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
}

// LogInternalError 记录原始错误，客户端只收到通用 500
func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}
