package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"

	"gorm.io/gorm"
)

// ExerciseService 话题练习：同步确定性判分，结果直接驱动进度状态机
type ExerciseService struct {
	Exercises  *repository.ExerciseRepository
	Curriculum *repository.CurriculumRepository
	Progress   *ProgressService
	Cfg        config.ProgressConfig
}

func NewExerciseService(
	exercises *repository.ExerciseRepository,
	curriculum *repository.CurriculumRepository,
	progress *ProgressService,
	cfg config.ProgressConfig,
) *ExerciseService {
	return &ExerciseService{
		Exercises:  exercises,
		Curriculum: curriculum,
		Progress:   progress,
		Cfg:        cfg,
	}
}

type TopicExercisesView struct {
	TopicID    uint             `json:"topicId"`
	TopicTitle string           `json:"topicTitle"`
	Exercises  []model.Exercise `json:"exercises"`
}

func (s *ExerciseService) ListByTopic(topicID uint) (*TopicExercisesView, error) {
	topic, err := s.findTopic(topicID)
	if err != nil {
		return nil, err
	}
	exercises, err := s.Exercises.ListByTopic(topicID)
	if err != nil {
		return nil, err
	}
	return &TopicExercisesView{
		TopicID:    topic.ID,
		TopicTitle: topic.Title,
		Exercises:  exercises,
	}, nil
}

type ExerciseSubmissionResult struct {
	SubmissionID        string                 `json:"submissionId"`
	CorrectCount        int                    `json:"correctCount"`
	TotalQuestions      int                    `json:"totalQuestions"`
	StarsEarned         int                    `json:"starsEarned"`
	PerformanceAnalysis string                 `json:"performanceAnalysis"`
	Results             []model.ExerciseResult `json:"results"`
	TopicCompleted      bool                   `json:"topicCompleted"`
	ModuleCompleted     bool                   `json:"moduleCompleted"`
}

// Submit 对照标准答案逐题判分，落库后把正确率喂给进度引擎
func (s *ExerciseService) Submit(userID string, topicID uint, answers []model.ExerciseAnswer) (*ExerciseSubmissionResult, error) {
	topic, err := s.findTopic(topicID)
	if err != nil {
		return nil, err
	}

	exercises, err := s.Exercises.ListByTopic(topicID)
	if err != nil {
		return nil, err
	}
	if len(exercises) == 0 {
		return nil, util.ErrTopicNotFound
	}

	byID := make(map[uint]*model.Exercise, len(exercises))
	for i := range exercises {
		byID[exercises[i].ID] = &exercises[i]
	}

	correct := 0
	results := make([]model.ExerciseResult, 0, len(answers))
	for _, a := range answers {
		ex, ok := byID[a.ExerciseID]
		if !ok {
			continue
		}
		isCorrect := answersMatch(ex.CorrectAnswer, a.Answer)
		if isCorrect {
			correct++
		}
		results = append(results, model.ExerciseResult{
			ExerciseID:    ex.ID,
			IsCorrect:     isCorrect,
			CorrectAnswer: ex.CorrectAnswer,
			Explanation:   ex.Explanation,
		})
	}

	total := len(exercises)
	accuracy := float64(correct) / float64(total)
	stars := starsFor(accuracy, s.Cfg.StarThresholds)

	rawAnswers, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	rawResults, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	sub := &model.ExerciseSubmission{
		UserID:              userID,
		TopicID:             topicID,
		Answers:             rawAnswers,
		CorrectCount:        correct,
		TotalQuestions:      total,
		StarsEarned:         stars,
		PerformanceAnalysis: analysisFor(accuracy),
		Results:             rawResults,
	}
	if err := s.Exercises.CreateSubmission(sub); err != nil {
		return nil, err
	}

	outcome, err := s.Progress.ApplyExerciseOutcome(userID, topic, accuracy, stars)
	if err != nil {
		return nil, err
	}

	return &ExerciseSubmissionResult{
		SubmissionID:        sub.ID,
		CorrectCount:        correct,
		TotalQuestions:      total,
		StarsEarned:         stars,
		PerformanceAnalysis: sub.PerformanceAnalysis,
		Results:             results,
		TopicCompleted:      outcome.TopicCompleted,
		ModuleCompleted:     outcome.ModuleCompleted,
	}, nil
}

func (s *ExerciseService) findTopic(topicID uint) (*model.Topic, error) {
	topic, err := s.Curriculum.FindTopic(topicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTopicNotFound
		}
		return nil, err
	}
	return topic, nil
}

// answersMatch 语言学习场景下字符串答案忽略大小写和首尾空白
func answersMatch(expected, actual json.RawMessage) bool {
	var e, a interface{}
	if err := json.Unmarshal(expected, &e); err != nil {
		return false
	}
	if err := json.Unmarshal(actual, &a); err != nil {
		return false
	}

	if es, ok := e.(string); ok {
		as, ok := a.(string)
		return ok && strings.EqualFold(strings.TrimSpace(es), strings.TrimSpace(as))
	}

	eb, _ := json.Marshal(e)
	ab, _ := json.Marshal(a)
	return string(eb) == string(ab)
}

// starsFor 按配置的正确率下限换算 0..3 星
func starsFor(accuracy float64, thresholds []float64) int {
	stars := 0
	for _, t := range thresholds {
		if accuracy >= t {
			stars++
		}
	}
	return stars
}

func analysisFor(accuracy float64) string {
	switch {
	case accuracy >= 0.9:
		return "Excellent work! You have a solid grasp of this topic."
	case accuracy >= 0.7:
		return "Good job! A little more practice and you will master this topic."
	default:
		return fmt.Sprintf("You answered %.0f%% correctly. You might want to review this topic again to improve your understanding.", accuracy*100)
	}
}
