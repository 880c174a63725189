package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 每个测试独立的内存库。进度推进逻辑依赖并发下的单行 UPDATE，
// 连接数限制为 1 以避免 sqlite 的写锁冲突。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

func testProgressConfig() config.ProgressConfig {
	return config.ProgressConfig{
		InitialUnlockedModules: 1,
		PassAccuracy:           0.7,
		ReviewAccuracy:         0.75,
		StarThresholds:         []float64{0.4, 0.7, 0.9},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Email:    email,
		Password: "hashed-password",
		Name:     "Test User",
		IsActive: true,
	}
	if err := repository.NewUserRepository(db).CreateWithProfile(user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

// seedTestCurriculum 两个模块：第一个含两个话题各带练习，第二个默认锁定
func seedTestCurriculum(t *testing.T, db *gorm.DB) []model.Module {
	t.Helper()

	modules := []model.Module{
		{Title: "Basics", Order: 0},
		{Title: "Conversations", Order: 1},
	}
	if err := db.Create(&modules).Error; err != nil {
		t.Fatalf("seed modules: %v", err)
	}

	topics := []model.Topic{
		{ModuleID: modules[0].ID, Title: "Greetings", Order: 0},
		{ModuleID: modules[0].ID, Title: "Numbers", Order: 1},
		{ModuleID: modules[1].ID, Title: "Small Talk", Order: 0},
	}
	if err := db.Create(&topics).Error; err != nil {
		t.Fatalf("seed topics: %v", err)
	}
	modules[0].Topics = topics[:2]
	modules[1].Topics = topics[2:]

	for _, topic := range topics {
		exercises := []model.Exercise{
			{
				TopicID:       topic.ID,
				Type:          "translation",
				Question:      "Translate: hello",
				CorrectAnswer: json.RawMessage(`"hola"`),
				Explanation:   "hola is the standard greeting",
			},
			{
				TopicID:       topic.ID,
				Type:          "multiple_choice",
				Question:      "Pick the greeting",
				Data:          json.RawMessage(`{"options":["hola","adios"]}`),
				CorrectAnswer: json.RawMessage(`0`),
			},
		}
		if err := db.Create(&exercises).Error; err != nil {
			t.Fatalf("seed exercises: %v", err)
		}
	}

	return modules
}

func newTestProgressService(db *gorm.DB, payments PaymentVerifier, cfg config.ProgressConfig) *ProgressService {
	return NewProgressService(
		repository.NewCurriculumRepository(db),
		repository.NewProgressRepository(db),
		repository.NewUserRepository(db),
		payments,
		PolicyFirstN(cfg.InitialUnlockedModules),
		cfg,
		db,
	)
}

func newTestExerciseService(db *gorm.DB) *ExerciseService {
	cfg := testProgressConfig()
	progress := newTestProgressService(db, &fakePaymentVerifier{}, cfg)
	return NewExerciseService(
		repository.NewExerciseRepository(db),
		repository.NewCurriculumRepository(db),
		progress,
		cfg,
	)
}

// fakeRevocationStore 内存版吊销集合
type fakeRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *fakeRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (s *fakeRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.revoked[jti]
	return ok && time.Now().Before(expiry), nil
}

// fakePaymentVerifier 默认放行，可注入错误
type fakePaymentVerifier struct {
	err   error
	calls int
}

func (v *fakePaymentVerifier) VerifyToken(ctx context.Context, userID string, moduleID uint, token string) error {
	v.calls++
	return v.err
}

// fakeScorer 可编程的评分器
type fakeScorer struct {
	mu      sync.Mutex
	result  *ScoringResult
	err     error
	failFor int // 前 N 次调用返回错误
	calls   int
}

func (s *fakeScorer) Score(ctx context.Context, questions []model.Question, answers []model.QuestionAnswer) (*ScoringResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFor {
		return nil, fmt.Errorf("scorer unavailable (attempt %d)", s.calls)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// inlineQueue 同步执行任务，测试中评分在 Submit 返回前完成
type inlineQueue struct {
	full bool
}

func (q *inlineQueue) Submit(task func()) bool {
	if q.full {
		return false
	}
	task()
	return true
}
