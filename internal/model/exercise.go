package model

import "encoding/json"

// Exercise 话题练习题，同步判分，不依赖外部评分服务
// swagger:model Exercise
type Exercise struct {
	BaseModel
	TopicID       uint            `gorm:"index;not null" json:"topicId"`
	Type          string          `gorm:"size:50;not null" json:"type"`
	Question      string          `gorm:"type:text;not null" json:"question"`
	Data          json.RawMessage `gorm:"type:json" json:"data"`
	CorrectAnswer json.RawMessage `gorm:"type:json" json:"-"`
	Explanation   string          `gorm:"type:text" json:"-"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// swagger:model ExerciseSubmission
type ExerciseSubmission struct {
	UUIDBase
	UserID              string          `gorm:"size:36;index;not null" json:"userId"`
	TopicID             uint            `gorm:"index;not null" json:"topicId"`
	Answers             json.RawMessage `gorm:"type:json" json:"answers"`
	CorrectCount        int             `gorm:"default:0" json:"correctCount"`
	TotalQuestions      int             `gorm:"default:0" json:"totalQuestions"`
	StarsEarned         int             `gorm:"default:0" json:"starsEarned"`
	PerformanceAnalysis string          `gorm:"type:text" json:"performanceAnalysis"`
	Results             json.RawMessage `gorm:"type:json" json:"results"`
}

func (ExerciseSubmission) TableName() string {
	return "exercise_submissions"
}

// ExerciseAnswer 客户端提交的单题答案
type ExerciseAnswer struct {
	ExerciseID uint            `json:"exerciseId" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}

// ExerciseResult 单题判分结果
type ExerciseResult struct {
	ExerciseID    uint            `json:"exerciseId"`
	IsCorrect     bool            `json:"isCorrect"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Explanation   string          `json:"explanation"`
}
