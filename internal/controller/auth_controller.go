package controller

import (
	"errors"
	"net/http"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService  *service.AuthService
	TokenService *service.TokenService
}

func NewAuthController(authService *service.AuthService, tokenService *service.TokenService) *AuthController {
	return &AuthController{
		AuthService:  authService,
		TokenService: tokenService,
	}
}

// RegisterRequest 注册请求体
// swagger:model RegisterRequest
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// Register godoc
// @Summary 注册新用户
// @Description 创建用户账号，同一事务内初始化学习档案
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response "创建成功"
// @Failure 400 {object} util.Response "请求参数错误或邮箱已被注册"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}

	if err := c.AuthService.Register(user); err != nil {
		if errors.Is(err, util.ErrEmailTaken) {
			util.Fail(ctx, http.StatusBadRequest, util.CodeEmailTaken, "A user with this email already exists")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"createdAt": user.CreatedAt,
	})
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 用户登录
// @Description 校验邮箱密码，签发 access/refresh 令牌对
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录凭证"
// @Success 200 {object} util.Response "登录成功"
// @Failure 400 {object} util.Response "凭证无效"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, pair, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, util.ErrInvalidCredentials) {
			util.Fail(ctx, http.StatusBadRequest, util.CodeInvalidCredentials, "Invalid email or password")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Refresh godoc
// @Summary 刷新令牌
// @Description 旋转刷新令牌：旧 refresh 立即吊销并签发新令牌对
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body RefreshRequest true "刷新令牌"
// @Success 200 {object} util.Response "新令牌对"
// @Failure 401 {object} util.Response "令牌无效、过期或已吊销"
// @Router /api/auth/token/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	pair, err := c.TokenService.Refresh(ctx.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, util.ErrInvalidToken) || errors.Is(err, util.ErrUserNotFound) {
			util.Fail(ctx, http.StatusUnauthorized, util.CodeInvalidToken, "Token is invalid or expired")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"access":  pair.AccessToken,
		"refresh": pair.RefreshToken,
	})
}

type LogoutRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// Logout godoc
// @Summary 退出登录
// @Description 吊销刷新令牌，重复提交同一令牌同样返回成功
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LogoutRequest true "待吊销的刷新令牌"
// @Success 205 {object} util.Response "已吊销"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/auth/logout [post]
// @Security BearerAuth
func (c *AuthController) Logout(ctx *gin.Context) {
	var req LogoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.TokenService.Revoke(ctx.Request.Context(), req.Refresh); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(http.StatusResetContent, util.Response{Success: true})
}
