package controller

import (
	"errors"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExerciseController struct {
	ExerciseService *service.ExerciseService
}

func NewExerciseController(exerciseService *service.ExerciseService) *ExerciseController {
	return &ExerciseController{ExerciseService: exerciseService}
}

// List godoc
// @Summary 话题练习列表
// @Description 返回话题下全部练习题，不含标准答案与解析
// @Tags 练习
// @Produce  json
// @Param   topicId path int true "话题ID"
// @Success 200 {object} util.Response{data=service.TopicExercisesView}
// @Failure 404 {object} util.Response "话题不存在"
// @Router /api/topics/{topicId}/exercises [get]
// @Security BearerAuth
func (c *ExerciseController) List(ctx *gin.Context) {
	topicID, err := parseUintParam(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic id")
		return
	}

	view, err := c.ExerciseService.ListByTopic(topicID)
	if err != nil {
		if errors.Is(err, util.ErrTopicNotFound) {
			util.NotFound(ctx, util.CodeTopicNotFound, "Topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, view)
}

type SubmitExercisesRequest struct {
	Answers []model.ExerciseAnswer `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary 提交练习答案
// @Description 同步判分并返回逐题结果、星级与分析；达标时推进话题/模块进度
// @Tags 练习
// @Accept  json
// @Produce  json
// @Param   topicId path int true "话题ID"
// @Param   body body SubmitExercisesRequest true "练习答案"
// @Success 200 {object} util.Response{data=service.ExerciseSubmissionResult}
// @Failure 404 {object} util.Response "话题不存在"
// @Router /api/topics/{topicId}/exercises/submit [post]
// @Security BearerAuth
func (c *ExerciseController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	topicID, err := parseUintParam(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic id")
		return
	}

	var req SubmitExercisesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ExerciseService.Submit(claims.UserID, topicID, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrTopicNotFound) {
			util.NotFound(ctx, util.CodeTopicNotFound, "Topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
