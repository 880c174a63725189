package controller

import (
	"errors"
	"net/http"

	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary 获取个人档案
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=service.ProfileView}
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/profile [get]
// @Security BearerAuth
func (c *UserController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.UserService.GetProfile(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// UpdateProfile godoc
// @Summary 更新个人档案
// @Description 仅允许修改姓名和用户名，学习进度字段由进度引擎维护
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body service.UpdateProfileRequest true "档案字段"
// @Success 200 {object} util.Response{data=service.ProfileView}
// @Failure 400 {object} util.Response "用户名已被占用"
// @Router /api/user/profile [put]
// @Security BearerAuth
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.UserService.UpdateProfile(claims.UserID, req)
	if err != nil {
		if errors.Is(err, util.ErrUsernameTaken) {
			util.Fail(ctx, http.StatusBadRequest, util.CodeUsernameTaken, "This username is already taken")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, profile)
}

// GetProgress godoc
// @Summary 学习进度总览
// @Description 等级、星级、完成统计、连续学习天数、周活跃与待加强话题
// @Tags 用户
// @Produce  json
// @Success 200 {object} util.Response{data=service.ProgressOverview}
// @Failure 401 {object} util.Response "未认证"
// @Router /api/user/progress [get]
// @Security BearerAuth
func (c *UserController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.UserService.GetProgressOverview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}
