package quiz

// Phase 游戏阶段
type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhaseQuiz        Phase = "quiz"
	PhaseElimination Phase = "elimination"
	PhaseFinished    Phase = "finished"
)

// Active 是否处于一局游戏之中
func (p Phase) Active() bool {
	return p == PhaseQuiz || p == PhaseElimination
}
