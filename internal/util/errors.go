package util

import "errors"

var (
	ErrEmailTaken            = errors.New("该邮箱已被注册")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidToken          = errors.New("invalid token")
	ErrUserNotFound          = errors.New("用户不存在")
	ErrUsernameTaken         = errors.New("该用户名已被占用")
	ErrModuleNotFound        = errors.New("module not found")
	ErrModuleAlreadyUnlocked = errors.New("module already unlocked")
	ErrPaymentInvalid        = errors.New("payment token rejected")
	ErrTopicNotFound         = errors.New("topic not found")
	ErrAssessmentNotFound    = errors.New("assessment not found")
	ErrSubmissionNotFound    = errors.New("submission not found")
	ErrScoringUnavailable    = errors.New("scoring service unavailable")
)
