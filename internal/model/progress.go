package model

// ProgressStatus 进度状态，只允许向前推进：locked → active → completed
type ProgressStatus string

const (
	StatusLocked    ProgressStatus = "locked"
	StatusActive    ProgressStatus = "active"
	StatusCompleted ProgressStatus = "completed"
)

var statusRank = map[ProgressStatus]int{
	StatusLocked:    1,
	StatusActive:    2,
	StatusCompleted: 3,
}

// CanAdvanceTo 状态只能前进，同级或回退都不允许
func (s ProgressStatus) CanAdvanceTo(next ProgressStatus) bool {
	return statusRank[next] > statusRank[s]
}

// UserModuleProgress 每个 (user, module) 至多一行
type UserModuleProgress struct {
	BaseModel
	UserID     string         `gorm:"size:36;not null;uniqueIndex:idx_user_module" json:"userId"`
	ModuleID   uint           `gorm:"not null;uniqueIndex:idx_user_module" json:"moduleId"`
	Status     ProgressStatus `gorm:"size:20;default:'locked'" json:"status"`
	FinalScore *int           `json:"finalScore"`
}

func (UserModuleProgress) TableName() string {
	return "user_module_progress"
}

// UserTopicProgress 每个 (user, topic) 至多一行
type UserTopicProgress struct {
	BaseModel
	UserID  string         `gorm:"size:36;not null;uniqueIndex:idx_user_topic" json:"userId"`
	TopicID uint           `gorm:"not null;uniqueIndex:idx_user_topic" json:"topicId"`
	Stars   int            `gorm:"default:0" json:"stars"`
	Status  ProgressStatus `gorm:"size:20;default:'locked'" json:"status"`
}

func (UserTopicProgress) TableName() string {
	return "user_topic_progress"
}
