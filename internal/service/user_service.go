package service

import (
	"errors"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/util"

	"gorm.io/gorm"
)

type UserService struct {
	Users      *repository.UserRepository
	Curriculum *repository.CurriculumRepository
	Progress   *repository.ProgressRepository
	Exercises  *repository.ExerciseRepository
	Cfg        config.ProgressConfig
}

func NewUserService(
	users *repository.UserRepository,
	curriculum *repository.CurriculumRepository,
	progress *repository.ProgressRepository,
	exercises *repository.ExerciseRepository,
	cfg config.ProgressConfig,
) *UserService {
	return &UserService{
		Users:      users,
		Curriculum: curriculum,
		Progress:   progress,
		Exercises:  exercises,
		Cfg:        cfg,
	}
}

type ProfileView struct {
	ID               uint        `json:"id"`
	Name             string      `json:"name"`
	Username         *string     `json:"username"`
	Email            string      `json:"email"`
	CurrentLevel     model.Level `json:"currentLevel"`
	TotalStars       int         `json:"totalStars"`
	CompletedModules int         `json:"completedModules"`
	MemberSince      time.Time   `json:"memberSince"`
}

func (s *UserService) GetProfile(userID string) (*ProfileView, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Users.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	return &ProfileView{
		ID:               profile.ID,
		Name:             user.Name,
		Username:         profile.Username,
		Email:            user.Email,
		CurrentLevel:     profile.CurrentLevel,
		TotalStars:       profile.TotalStars,
		CompletedModules: profile.CompletedModules,
		MemberSince:      user.CreatedAt,
	}, nil
}

type UpdateProfileRequest struct {
	Name     string  `json:"name"`
	Username *string `json:"username"`
}

// UpdateProfile 只开放 name 和 username，等级/星级/完成数由进度引擎维护
func (s *UserService) UpdateProfile(userID string, req UpdateProfileRequest) (*ProfileView, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.Users.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
		if err := s.Users.Update(user); err != nil {
			return nil, err
		}
	}

	if req.Username != nil && *req.Username != "" {
		taken, err := s.Users.UsernameTaken(*req.Username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, util.ErrUsernameTaken
		}
		profile.Username = req.Username
		if err := s.Users.SaveProfile(profile); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(userID)
}

type ProgressOverview struct {
	Overview            OverviewStats   `json:"overview"`
	Statistics          ActivityStats   `json:"statistics"`
	SkillProgress       []SkillProgress `json:"skillProgress"`
	WeeklyActivity      []DayActivity   `json:"weeklyActivity"`
	AreasForImprovement []TopicReminder `json:"areasForImprovement"`
}

type OverviewStats struct {
	CurrentLevel     model.Level `json:"currentLevel"`
	TotalStars       int         `json:"totalStars"`
	CompletedModules int         `json:"completedModules"`
	CompletedTopics  int64       `json:"completedTopics"`
}

type ActivityStats struct {
	DayStreak    int `json:"dayStreak"`
	AvgScore     int `json:"avgScore"`
	WordsLearned int `json:"wordsLearned"`
	StudyTimeMin int `json:"studyTimeMinutes"`
}

type SkillProgress struct {
	Skill    string `json:"skill"`
	Progress int    `json:"progress"`
}

type DayActivity struct {
	Day    string `json:"day"`
	Active bool   `json:"active"`
}

type TopicReminder struct {
	TopicID        uint   `json:"topicId"`
	TopicTitle     string `json:"topicTitle"`
	Accuracy       int    `json:"accuracy"`
	Recommendation string `json:"recommendation"`
}

// GetProgressOverview 从档案和历史提交派生学习统计
func (s *UserService) GetProgressOverview(userID string) (*ProgressOverview, error) {
	profile, err := s.Users.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	completedTopics, err := s.Progress.CountCompletedTopicsAll(userID)
	if err != nil {
		return nil, err
	}

	subs, err := s.Exercises.ListSubmissionsByUser(userID)
	if err != nil {
		return nil, err
	}

	overview := &ProgressOverview{
		Overview: OverviewStats{
			CurrentLevel:     profile.CurrentLevel,
			TotalStars:       profile.TotalStars,
			CompletedModules: profile.CompletedModules,
			CompletedTopics:  completedTopics,
		},
		Statistics:          s.buildStatistics(subs),
		SkillProgress:       buildSkillProgress(subs),
		WeeklyActivity:      buildWeeklyActivity(subs),
		AreasForImprovement: s.buildImprovementAreas(userID, subs),
	}
	return overview, nil
}

func (s *UserService) buildStatistics(subs []model.ExerciseSubmission) ActivityStats {
	stats := ActivityStats{}
	if len(subs) == 0 {
		return stats
	}

	totalAccuracy := 0
	words := 0
	days := map[string]bool{}
	for _, sub := range subs {
		if sub.TotalQuestions > 0 {
			totalAccuracy += sub.CorrectCount * 100 / sub.TotalQuestions
		}
		words += sub.CorrectCount
		days[sub.CreatedAt.Format("2006-01-02")] = true
	}

	stats.AvgScore = totalAccuracy / len(subs)
	stats.WordsLearned = words
	stats.StudyTimeMin = len(subs) * 5 // 每次练习按5分钟估算
	stats.DayStreak = streakFrom(days)
	return stats
}

func streakFrom(days map[string]bool) int {
	streak := 0
	day := time.Now()
	for {
		if !days[day.Format("2006-01-02")] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func buildSkillProgress(subs []model.ExerciseSubmission) []SkillProgress {
	// 练习只覆盖语法/词汇两类技能，按整体正确率给出
	if len(subs) == 0 {
		return []SkillProgress{}
	}
	total, correct := 0, 0
	for _, sub := range subs {
		total += sub.TotalQuestions
		correct += sub.CorrectCount
	}
	progress := 0
	if total > 0 {
		progress = correct * 100 / total
	}
	return []SkillProgress{
		{Skill: "Grammar", Progress: progress},
		{Skill: "Vocabulary", Progress: progress},
	}
}

func buildWeeklyActivity(subs []model.ExerciseSubmission) []DayActivity {
	days := map[string]bool{}
	for _, sub := range subs {
		days[sub.CreatedAt.Format("2006-01-02")] = true
	}

	// 从本周一开始的7天
	now := time.Now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := now.AddDate(0, 0, -(weekday - 1))

	activity := make([]DayActivity, 0, 7)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		activity = append(activity, DayActivity{
			Day:    day.Format("Mon"),
			Active: days[day.Format("2006-01-02")],
		})
	}
	return activity
}

// buildImprovementAreas 每个话题取最近一次提交，正确率低于复习阈值的进入提醒列表
func (s *UserService) buildImprovementAreas(userID string, subs []model.ExerciseSubmission) []TopicReminder {
	latest := map[uint]*model.ExerciseSubmission{}
	for i := range subs {
		sub := &subs[i]
		if _, seen := latest[sub.TopicID]; !seen {
			// ListSubmissionsByUser 按创建时间倒序
			latest[sub.TopicID] = sub
		}
	}

	reminders := []TopicReminder{}
	for topicID, sub := range latest {
		if sub.TotalQuestions == 0 {
			continue
		}
		accuracy := sub.CorrectCount * 100 / sub.TotalQuestions
		if float64(accuracy) >= s.Cfg.ReviewAccuracy*100 {
			continue
		}
		topic, err := s.Curriculum.FindTopic(topicID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			continue
		}
		recommendation := "Review recommended"
		if float64(accuracy) < s.Cfg.PassAccuracy*100 {
			recommendation = "Needs practice"
		}
		reminders = append(reminders, TopicReminder{
			TopicID:        topicID,
			TopicTitle:     topic.Title,
			Accuracy:       accuracy,
			Recommendation: recommendation,
		})
	}
	return reminders
}
