package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
)

// ScoringResult 外部评分服务的回写内容
type ScoringResult struct {
	CorrectCount int         `json:"correctCount"`
	Level        model.Level `json:"level"`
	Analysis     string      `json:"analysis"`
}

// Scorer 测评评分的外部协作方
type Scorer interface {
	Score(ctx context.Context, questions []model.Question, answers []model.QuestionAnswer) (*ScoringResult, error)
}

// AIScorer 通过 chat-completions 接口评分，要求模型返回 JSON
type AIScorer struct {
	cfg    config.ScoringConfig
	client *http.Client
}

func NewAIScorer(cfg config.ScoringConfig) *AIScorer {
	return &AIScorer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (s *AIScorer) Score(ctx context.Context, questions []model.Question, answers []model.QuestionAnswer) (*ScoringResult, error) {
	prompt, err := buildScoringPrompt(questions, answers)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model": s.cfg.Model,
		"messages": []chatMessage{
			{
				Role: "system",
				Content: "你是语言学习平台的测评评分员。根据题目、标准答案和学生作答返回严格的JSON：" +
					`{"correctCount": <int>, "level": "<A1|A2|B1|B2|C1|C2>", "analysis": "<一段英文学习建议>"}` +
					"，不要输出JSON以外的任何内容。",
			},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("scoring API error (status %d): %s", resp.StatusCode, string(body))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, err
	}
	if completion.Error != nil {
		return nil, fmt.Errorf("scoring API error: %s", completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("scoring API returned no choices")
	}

	result, err := parseScoringResult(completion.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	sanitizeResult(result, len(questions))
	return result, nil
}

func buildScoringPrompt(questions []model.Question, answers []model.QuestionAnswer) (string, error) {
	answerMap := make(map[uint]json.RawMessage, len(answers))
	for _, a := range answers {
		answerMap[a.QuestionID] = a.Answer
	}

	var b strings.Builder
	fmt.Fprintf(&b, "共 %d 道题，逐题给出：题目、标准答案、学生作答。\n\n", len(questions))
	for i, q := range questions {
		student := json.RawMessage(`null`)
		if a, ok := answerMap[q.ID]; ok {
			student = a
		}
		fmt.Fprintf(&b, "%d. [%s/%s] %s\n   标准答案: %s\n   学生作答: %s\n",
			i+1, q.Type, q.Category, q.Question, string(q.CorrectAnswer), string(student))
	}
	return b.String(), nil
}

func parseScoringResult(content string) (*ScoringResult, error) {
	// 容忍模型把 JSON 包进 markdown 代码块
	content = strings.TrimSpace(content)
	if idx := strings.Index(content, "{"); idx > 0 {
		content = content[idx:]
	}
	if idx := strings.LastIndex(content, "}"); idx >= 0 {
		content = content[:idx+1]
	}

	var result ScoringResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("scoring response is not valid JSON: %w", err)
	}
	return &result, nil
}

// sanitizeResult 对回写内容做边界约束：correctCount 不超过题目数，
// 非法等级按正确率折算。
func sanitizeResult(r *ScoringResult, total int) {
	if r.CorrectCount < 0 {
		r.CorrectCount = 0
	}
	if r.CorrectCount > total {
		r.CorrectCount = total
	}
	if !r.Level.Valid() {
		r.Level = levelFromRatio(r.CorrectCount, total)
	}
}

func levelFromRatio(correct, total int) model.Level {
	if total == 0 {
		return model.LevelA1
	}
	switch ratio := float64(correct) / float64(total); {
	case ratio >= 0.95:
		return model.LevelC1
	case ratio >= 0.85:
		return model.LevelB2
	case ratio >= 0.7:
		return model.LevelB1
	case ratio >= 0.5:
		return model.LevelA2
	default:
		return model.LevelA1
	}
}
