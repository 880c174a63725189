package database

import (
	"encoding/json"
	"fmt"
	"log"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// 唯一索引冲突统一转成 gorm.ErrDuplicatedKey，业务层据此返回 EMAIL_TAKEN 等错误
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	if err := SeedCurriculum(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Module{},
		&model.Topic{},
		&model.TopicContent{},
		&model.UserModuleProgress{},
		&model.UserTopicProgress{},
		&model.Assessment{},
		&model.Question{},
		&model.AssessmentSubmission{},
		&model.Exercise{},
		&model.ExerciseSubmission{},
	)
}

// SeedCurriculum 课程为静态内容，空库时插入默认数据
func SeedCurriculum(db *gorm.DB) error {
	var count int64
	db.Model(&model.Module{}).Count(&count)
	if count > 0 {
		return nil
	}

	modules := []struct {
		title  string
		topics []string
	}{
		{"Basic Grammar", []string{"Present Simple", "Articles (a, an, the)", "Plural Nouns"}},
		{"Past Tenses", []string{"Past Simple", "Past Simple vs Present Perfect"}},
		{"Everyday Vocabulary", []string{"Food and Drink", "Travel"}},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for mi, m := range modules {
			mod := model.Module{Title: m.title, Order: mi + 1}
			if err := tx.Create(&mod).Error; err != nil {
				return err
			}
			for ti, t := range m.topics {
				topic := model.Topic{ModuleID: mod.ID, Title: t, Order: ti + 1}
				if err := tx.Create(&topic).Error; err != nil {
					return err
				}
				content := model.TopicContent{
					TopicID: topic.ID,
					Content: json.RawMessage(fmt.Sprintf(`{"sections":[{"type":"theory","title":%q,"body":""}]}`, t)),
				}
				if err := tx.Create(&content).Error; err != nil {
					return err
				}
			}
		}

		a := model.Assessment{Title: "Placement Test"}
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		questions := []model.Question{
			{
				AssessmentID:  a.ID,
				Type:          "multiple_choice",
				Question:      "She ___ to school every day.",
				Options:       json.RawMessage(`["go","goes","going","gone"]`),
				Category:      "grammar",
				CorrectAnswer: json.RawMessage(`"goes"`),
			},
			{
				AssessmentID:  a.ID,
				Type:          "multiple_choice",
				Question:      "I ___ coffee yesterday morning.",
				Options:       json.RawMessage(`["drink","drank","drunk","drinking"]`),
				Category:      "grammar",
				CorrectAnswer: json.RawMessage(`"drank"`),
			},
			{
				AssessmentID:  a.ID,
				Type:          "fill_blank",
				Question:      "Write the past form of \"go\".",
				Options:       json.RawMessage(`[]`),
				Category:      "vocabulary",
				CorrectAnswer: json.RawMessage(`"went"`),
			},
		}
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
