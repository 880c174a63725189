package controller

import (
	"errors"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// Get godoc
// @Summary 获取安置测评
// @Description 返回默认测评及题目，题目中不含标准答案
// @Tags 测评
// @Produce  json
// @Success 200 {object} util.Response{data=service.AssessmentView}
// @Failure 404 {object} util.Response "测评不存在"
// @Router /api/assessment [get]
// @Security BearerAuth
func (c *AssessmentController) Get(ctx *gin.Context) {
	view, err := c.AssessmentService.GetDefault()
	if err != nil {
		if errors.Is(err, util.ErrAssessmentNotFound) {
			util.NotFound(ctx, util.CodeAssessmentNotFound, "Assessment not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, view)
}

type SubmitAssessmentRequest struct {
	AssessmentID string                 `json:"assessmentId" binding:"required"`
	Answers      []model.QuestionAnswer `json:"answers" binding:"required"`
}

// Submit godoc
// @Summary 提交测评答案
// @Description 创建 processing 状态的提交并异步评分，立即返回提交ID供轮询
// @Tags 测评
// @Accept  json
// @Produce  json
// @Param   body body SubmitAssessmentRequest true "测评答案"
// @Success 200 {object} util.Response "提交ID"
// @Failure 404 {object} util.Response "测评不存在"
// @Router /api/assessment/submit [post]
// @Security BearerAuth
func (c *AssessmentController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submissionID, err := c.AssessmentService.Submit(claims.UserID, req.AssessmentID, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrAssessmentNotFound) {
			util.NotFound(ctx, util.CodeAssessmentNotFound, "Assessment not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"submissionId": submissionID})
}

// GetResult godoc
// @Summary 查询测评结果
// @Description 评分未完成时返回 202 processing，完成后返回评分与分析。
// @Description 其他用户的提交按不存在处理。
// @Tags 测评
// @Produce  json
// @Param   submissionId path string true "提交ID"
// @Success 200 {object} util.Response "评分结果"
// @Success 202 {object} util.Response "评分处理中"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/assessment/result/{submissionId} [get]
// @Security BearerAuth
func (c *AssessmentController) GetResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sub, err := c.AssessmentService.GetResult(claims.UserID, ctx.Param("submissionId"))
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx, util.CodeNotFound, "Submission not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if sub.Status == model.SubmissionProcessing {
		util.Processing(ctx, "Your assessment is being scored")
		return
	}

	util.Complete(ctx, gin.H{
		"submissionId":   sub.ID,
		"correctCount":   sub.CorrectCount,
		"totalQuestions": sub.TotalQuestions,
		"level":          sub.Level,
		"analysis":       sub.AIAnalysis,
		"completedAt":    sub.UpdatedAt,
	})
}
