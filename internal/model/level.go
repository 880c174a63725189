package model

// Level CEFR语言等级
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levelRank = map[Level]int{
	LevelA1: 1,
	LevelA2: 2,
	LevelB1: 3,
	LevelB2: 4,
	LevelC1: 5,
	LevelC2: 6,
}

func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// After 判断 l 是否高于 other，未知等级视为最低
func (l Level) After(other Level) bool {
	return levelRank[l] > levelRank[other]
}
