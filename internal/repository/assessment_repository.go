package repository

import (
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

// GetDefault 当前只有一份安置测评，取最早创建的那份
func (r *AssessmentRepository) GetDefault() (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Preload("Questions").Order("created_at ASC").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssessmentRepository) FindByID(id string) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.Preload("Questions").First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssessmentRepository) ListQuestions(assessmentID string) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("assessment_id = ?", assessmentID).Find(&questions).Error
	return questions, err
}

func (r *AssessmentRepository) CreateSubmission(sub *model.AssessmentSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *AssessmentRepository) FindSubmission(id string) (*model.AssessmentSubmission, error) {
	var sub model.AssessmentSubmission
	err := r.DB.First(&sub, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CompleteSubmission processing → complete 的一次性回写，完成后不可再改
func (r *AssessmentRepository) CompleteSubmission(id string, level model.Level, correctCount int, analysis string) (bool, error) {
	res := r.DB.Model(&model.AssessmentSubmission{}).
		Where("id = ? AND status = ?", id, model.SubmissionProcessing).
		Updates(map[string]interface{}{
			"status":        model.SubmissionComplete,
			"level":         level,
			"correct_count": correctCount,
			"ai_analysis":   analysis,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *AssessmentRepository) ListSubmissionsByUser(userID string) ([]model.AssessmentSubmission, error) {
	var subs []model.AssessmentSubmission
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error
	return subs, err
}
