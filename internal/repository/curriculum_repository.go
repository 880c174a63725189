package repository

import (
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

// CurriculumRepository 静态课程结构，运行时只读（管理端媒体上传除外）
type CurriculumRepository struct {
	DB *gorm.DB
}

func NewCurriculumRepository(db *gorm.DB) *CurriculumRepository {
	return &CurriculumRepository{DB: db}
}

func (r *CurriculumRepository) ListModulesWithTopics() ([]model.Module, error) {
	var modules []model.Module
	err := r.DB.Preload("Topics", func(db *gorm.DB) *gorm.DB {
		return db.Order("topics.sort_order ASC")
	}).Order("modules.sort_order ASC").Find(&modules).Error
	return modules, err
}

func (r *CurriculumRepository) FindModule(id uint) (*model.Module, error) {
	var module model.Module
	err := r.DB.First(&module, id).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *CurriculumRepository) FindTopic(id uint) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.First(&topic, id).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *CurriculumRepository) ListTopicsByModule(moduleID uint) ([]model.Topic, error) {
	var topics []model.Topic
	err := r.DB.Where("module_id = ?", moduleID).Order("topics.sort_order ASC").Find(&topics).Error
	return topics, err
}

func (r *CurriculumRepository) GetTopicContent(topicID uint) (*model.TopicContent, error) {
	var content model.TopicContent
	err := r.DB.Where("topic_id = ?", topicID).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

func (r *CurriculumRepository) SaveTopicContent(content *model.TopicContent) error {
	return r.DB.Save(content).Error
}

func (r *CurriculumRepository) CountTopics() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Topic{}).Count(&count).Error
	return count, err
}
