package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController 课程内容管理，仅 staff 可用
type AdminController struct {
	Curriculum     *repository.CurriculumRepository
	StorageService *service.StorageService
}

func NewAdminController(curriculum *repository.CurriculumRepository, storageService *service.StorageService) *AdminController {
	return &AdminController{
		Curriculum:     curriculum,
		StorageService: storageService,
	}
}

// UploadTopicMedia godoc
// @Summary 上传话题听力素材
// @Description 探测音频时长后写入存储，并更新话题内容的音频地址
// @Tags 管理
// @Accept  multipart/form-data
// @Produce  json
// @Param   topicId path int true "话题ID"
// @Param   file formData file true "音频文件"
// @Success 200 {object} util.Response "音频地址与时长"
// @Failure 400 {object} util.Response "文件格式不支持"
// @Failure 403 {object} util.Response "非管理员"
// @Failure 404 {object} util.Response "话题不存在"
// @Router /api/admin/topics/{topicId}/media [post]
// @Security BearerAuth
func (c *AdminController) UploadTopicMedia(ctx *gin.Context) {
	topicID, err := parseUintParam(ctx, "topicId")
	if err != nil {
		util.BadRequest(ctx, "invalid topic id")
		return
	}

	topic, err := c.Curriculum.FindTopic(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, util.CodeTopicNotFound, "Topic not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedAudioExt(ext) {
		util.BadRequest(ctx, fmt.Sprintf("unsupported audio format: %s", ext))
		return
	}

	// 先落到临时文件，ffprobe 需要真实路径
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("upload_%d%s", time.Now().UnixNano(), ext))
	if err := ctx.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	audioInfo, err := util.GetAudioInfo(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "invalid audio file")
		return
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	filename := fmt.Sprintf("topics/%d/audio%s", topic.ID, ext)
	contentType := fileHeader.Header.Get("Content-Type")
	url, err := c.StorageService.Provider.Upload(ctx.Request.Context(), filename, src, audioInfo.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	content, err := c.Curriculum.GetTopicContent(topic.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			util.LogInternalError(ctx, err)
			return
		}
		content = &model.TopicContent{TopicID: topic.ID}
	}
	content.AudioURL = url
	content.AudioDuration = audioInfo.Duration
	if err := c.Curriculum.SaveTopicContent(content); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"audioUrl":      url,
		"audioDuration": audioInfo.Duration,
	})
}

func allowedAudioExt(ext string) bool {
	for _, allowed := range util.AllowedAudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
