package model

import "encoding/json"

// Module 课程模块，静态内容，运行时只读
// swagger:model Module
type Module struct {
	BaseModel
	Title  string  `gorm:"size:255;not null" json:"title"`
	Order  int     `gorm:"column:sort_order;default:0;index" json:"order"` // order 是 SQL 保留字，列名用 sort_order
	Topics []Topic `gorm:"foreignKey:ModuleID" json:"topics,omitempty"`
}

func (Module) TableName() string {
	return "modules"
}

// swagger:model Topic
type Topic struct {
	BaseModel
	ModuleID uint   `gorm:"index;not null" json:"moduleId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Order    int    `gorm:"column:sort_order;default:0;index" json:"order"`
}

func (Topic) TableName() string {
	return "topics"
}

// TopicContent 与 Topic 一对一的学习内容
// swagger:model TopicContent
type TopicContent struct {
	BaseModel
	TopicID       uint            `gorm:"uniqueIndex;not null" json:"topicId"`
	Content       json.RawMessage `gorm:"type:json" json:"content"`
	AudioURL      string          `gorm:"size:255" json:"audioUrl,omitempty"`
	AudioDuration float64         `gorm:"default:0" json:"audioDuration,omitempty"` // 秒
}

func (TopicContent) TableName() string {
	return "topic_contents"
}
