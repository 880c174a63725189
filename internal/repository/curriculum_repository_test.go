package repository

import (
	"fmt"
	"testing"

	"lingo_edu_backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupCurriculumDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Module{}, &model.Topic{}, &model.TopicContent{}))
	return db
}

// 模块与话题的排序列按 sort_order 排序，乱序写入后读取仍按课程顺序返回。
func TestListModulesWithTopicsOrdering(t *testing.T) {
	db := setupCurriculumDB(t)
	repo := NewCurriculumRepository(db)

	second := model.Module{Title: "Conversations", Order: 2}
	require.NoError(t, db.Create(&second).Error)
	first := model.Module{Title: "Basics", Order: 1}
	require.NoError(t, db.Create(&first).Error)

	require.NoError(t, db.Create(&model.Topic{ModuleID: first.ID, Title: "Numbers", Order: 2}).Error)
	require.NoError(t, db.Create(&model.Topic{ModuleID: first.ID, Title: "Greetings", Order: 1}).Error)

	modules, err := repo.ListModulesWithTopics()
	require.NoError(t, err)
	require.Len(t, modules, 2)
	require.Equal(t, "Basics", modules[0].Title)
	require.Equal(t, "Conversations", modules[1].Title)

	require.Len(t, modules[0].Topics, 2)
	require.Equal(t, "Greetings", modules[0].Topics[0].Title)
	require.Equal(t, "Numbers", modules[0].Topics[1].Title)
}

func TestListTopicsByModuleOrdering(t *testing.T) {
	db := setupCurriculumDB(t)
	repo := NewCurriculumRepository(db)

	mod := model.Module{Title: "Basics", Order: 1}
	require.NoError(t, db.Create(&mod).Error)
	other := model.Module{Title: "Conversations", Order: 2}
	require.NoError(t, db.Create(&other).Error)

	require.NoError(t, db.Create(&model.Topic{ModuleID: mod.ID, Title: "Numbers", Order: 2}).Error)
	require.NoError(t, db.Create(&model.Topic{ModuleID: mod.ID, Title: "Greetings", Order: 1}).Error)
	require.NoError(t, db.Create(&model.Topic{ModuleID: other.ID, Title: "Small Talk", Order: 1}).Error)

	topics, err := repo.ListTopicsByModule(mod.ID)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	require.Equal(t, "Greetings", topics[0].Title)
	require.Equal(t, "Numbers", topics[1].Title)
}
