package quiz

import (
	"math"
	"time"
)

// Rules 计分与节奏参数
type Rules struct {
	QuestionTime        time.Duration
	EliminationInterval int
	MaxScore            int
	LatePenalty         float64 // 用满答题时间时扣除的比例
}

// DefaultRules 默认规则：20 秒一题，每 5 轮淘汰一人，满分 1000，最慢仍得 30%
func DefaultRules() Rules {
	return Rules{
		QuestionTime:        20 * time.Second,
		EliminationInterval: 5,
		MaxScore:            1000,
		LatePenalty:         0.7,
	}
}

// Points 计算一次作答的得分，答错得 0 分
func (r Rules) Points(correct bool, elapsed time.Duration) int {
	if !correct {
		return 0
	}
	ratio := 0.0
	if r.QuestionTime > 0 {
		ratio = float64(elapsed) / float64(r.QuestionTime)
	}
	ratio = math.Min(math.Max(ratio, 0), 1)
	return int(math.Round(float64(r.MaxScore) * (1 - ratio*r.LatePenalty)))
}

// EliminationDue 当前轮次结束后是否应进入淘汰。
// lastEliminated 记录已经执行过淘汰的轮次，同一轮只淘汰一次
func (r Rules) EliminationDue(round, lastEliminated int) bool {
	if r.EliminationInterval <= 0 || round <= 0 {
		return false
	}
	return round%r.EliminationInterval == 0 && round != lastEliminated
}

// QuestionSeconds 答题时间（整秒）
func (r Rules) QuestionSeconds() int {
	return int(math.Ceil(r.QuestionTime.Seconds()))
}
