package controller

import (
	"errors"
	"net/http"
	"strconv"

	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type LearningController struct {
	ProgressService *service.ProgressService
}

func NewLearningController(progressService *service.ProgressService) *LearningController {
	return &LearningController{ProgressService: progressService}
}

// ListModules godoc
// @Summary 课程模块列表
// @Description 按固定顺序返回全部模块及话题，附带当前用户的解锁状态与星级。
// @Description 首次访问时按解锁策略物化进度行。
// @Tags 学习
// @Produce  json
// @Success 200 {object} util.Response{data=[]service.ModuleView}
// @Failure 401 {object} util.Response "未认证"
// @Router /api/modules [get]
// @Security BearerAuth
func (c *LearningController) ListModules(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ProgressService.Bootstrap(claims.UserID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	modules, err := c.ProgressService.ListModules(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, modules)
}

// GetTopicContent godoc
// @Summary 话题学习内容
// @Tags 学习
// @Produce  json
// @Param   topicId path int true "话题ID"
// @Success 200 {object} util.Response{data=model.TopicContent}
// @Failure 404 {object} util.Response "话题或内容不存在"
// @Router /api/topics/{topicId}/content [get]
// @Security BearerAuth
func (c *LearningController) GetTopicContent(ctx *gin.Context) {
	topicID, err := parseUintParam(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic id")
		return
	}

	content, err := c.ProgressService.Curriculum.GetTopicContent(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, util.CodeTopicNotFound, "Topic content not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, content)
}

type UnlockRequest struct {
	PaymentToken string `json:"paymentToken"`
}

// UnlockModule godoc
// @Summary 解锁模块
// @Description 校验支付凭证后将模块从 locked 推进到 active。
// @Description 凭证校验失败时不发生任何状态变化。
// @Tags 学习
// @Accept  json
// @Produce  json
// @Param   moduleId path int true "模块ID"
// @Param   body body UnlockRequest true "支付凭证"
// @Success 200 {object} util.Response{data=service.UnlockResult}
// @Failure 400 {object} util.Response "模块已解锁或支付凭证无效"
// @Failure 404 {object} util.Response "模块不存在"
// @Router /api/modules/{moduleId}/unlock [post]
// @Security BearerAuth
func (c *LearningController) UnlockModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	moduleID, err := parseUintParam(ctx, "moduleId")
	if err != nil {
		util.BadRequest(ctx, "invalid module id")
		return
	}

	var req UnlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProgressService.UnlockModule(ctx.Request.Context(), claims.UserID, moduleID, req.PaymentToken)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx, util.CodeModuleNotFound, "Module not found")
		case errors.Is(err, util.ErrModuleAlreadyUnlocked):
			util.Fail(ctx, http.StatusBadRequest, util.CodeModuleUnlocked, "Module is already unlocked")
		case errors.Is(err, util.ErrPaymentInvalid):
			util.Fail(ctx, http.StatusBadRequest, util.CodePaymentInvalid, "Payment verification failed")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
