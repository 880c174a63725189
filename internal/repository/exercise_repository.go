package repository

import (
	"time"

	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ExerciseRepository struct {
	DB *gorm.DB
}

func NewExerciseRepository(db *gorm.DB) *ExerciseRepository {
	return &ExerciseRepository{DB: db}
}

func (r *ExerciseRepository) ListByTopic(topicID uint) ([]model.Exercise, error) {
	var exercises []model.Exercise
	err := r.DB.Where("topic_id = ?", topicID).Order("id ASC").Find(&exercises).Error
	return exercises, err
}

func (r *ExerciseRepository) CreateSubmission(sub *model.ExerciseSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *ExerciseRepository) ListSubmissionsByUser(userID string) ([]model.ExerciseSubmission, error) {
	var subs []model.ExerciseSubmission
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}

func (r *ExerciseRepository) ListSubmissionsSince(userID string, since time.Time) ([]model.ExerciseSubmission, error) {
	var subs []model.ExerciseSubmission
	err := r.DB.Where("user_id = ? AND created_at >= ?", userID, since).Find(&subs).Error
	return subs, err
}
