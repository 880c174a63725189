package model

import "encoding/json"

// swagger:model Assessment
type Assessment struct {
	UUIDBase
	Title     string     `gorm:"size:255;not null" json:"title"`
	Questions []Question `gorm:"foreignKey:AssessmentID" json:"questions,omitempty"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// Question 测评题目，CorrectAnswer 不会序列化给客户端
// swagger:model Question
type Question struct {
	BaseModel
	AssessmentID  string          `gorm:"size:36;index;not null" json:"-"`
	Type          string          `gorm:"size:50;not null" json:"type"`
	Question      string          `gorm:"type:text;not null" json:"question"`
	Options       json.RawMessage `gorm:"type:json" json:"options"`
	Category      string          `gorm:"size:100" json:"category"`
	CorrectAnswer json.RawMessage `gorm:"type:json" json:"-"`
}

func (Question) TableName() string {
	return "assessment_questions"
}

const (
	SubmissionProcessing = "processing"
	SubmissionComplete   = "complete"
)

// AssessmentSubmission 创建时为 processing，评分回写后 complete，之后只读
// swagger:model AssessmentSubmission
type AssessmentSubmission struct {
	UUIDBase
	UserID         string          `gorm:"size:36;index;not null" json:"userId"`
	AssessmentID   string          `gorm:"size:36;index;not null" json:"assessmentId"`
	Answers        json.RawMessage `gorm:"type:json" json:"answers"`
	Status         string          `gorm:"size:20;default:'processing'" json:"status"`
	Level          Level           `gorm:"size:10" json:"level,omitempty"`
	CorrectCount   int             `gorm:"default:0" json:"correctCount"`
	TotalQuestions int             `gorm:"default:0" json:"totalQuestions"`
	AIAnalysis     string          `gorm:"type:text" json:"aiAnalysis,omitempty"`
}

func (AssessmentSubmission) TableName() string {
	return "assessment_submissions"
}

// QuestionAnswer 客户端提交的单题答案
type QuestionAnswer struct {
	QuestionID uint            `json:"questionId" binding:"required"`
	Answer     json.RawMessage `json:"answer" binding:"required"`
}
