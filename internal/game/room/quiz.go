package room

import (
	"math"

	"github.com/palemoky/quiz-room/internal/events"
	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

// startGame 房主在全员准备后开始游戏
func (r *Room) startGame(p *Player) {
	if p.ID != r.state.HostID || r.state.Phase != quiz.PhaseWaiting || !r.allReady() {
		r.log.Debug().Str("player_id", p.ID).Msg("忽略开始游戏请求")
		return
	}

	r.broadcast(codec.MustNewMessage(protocol.MsgGameStarted, protocol.GameStartedPayload{Started: true}))

	r.state.resetGame()
	r.state.Phase = quiz.PhaseQuiz
	r.round.reset()
	r.deck.Reset()

	active := r.state.activePlayers()
	r.log.Info().Int("players", len(active)).Msg("🎮 游戏开始")
	r.publish(events.GameStarted, events.GamePayload{Players: playerIDs(active)})

	r.startNextRound()
}

// startNextRound 进入下一轮：人数不足则结束，到达淘汰轮次则先淘汰，否则出题
func (r *Room) startNextRound() {
	rules := r.settings.Rules

	if len(r.state.activePlayers()) <= 1 {
		r.finishGame()
		return
	}
	if rules.EliminationDue(r.state.CurrentRound, r.round.lastEliminated) {
		r.startElimination()
		return
	}

	q, ok := r.deck.Draw()
	if !ok {
		r.log.Error().Msg("题库为空，提前结束游戏")
		r.finishGame()
		return
	}

	now := r.clock.Now()
	r.state.Phase = quiz.PhaseQuiz
	r.state.CurrentRound++
	r.state.CurrentQuestion = &q
	r.state.TimeRemaining = rules.QuestionSeconds()
	r.round.inProgress = true
	r.round.startedAt = now
	r.round.deadline = now.Add(rules.QuestionTime)
	r.round.answers = make(map[string]answer)

	r.broadcast(codec.MustNewMessage(protocol.MsgNewQuestion, protocol.NewQuestionPayload{
		Question:  q.Prompt,
		Options:   q.Options,
		TimeLimit: rules.QuestionSeconds(),
		Round:     r.state.CurrentRound,
	}))

	r.schedule(timerKey{kind: timerDeadline}, rules.QuestionTime, r.endRound)
	r.scheduleCountdown()

	r.log.Info().Int("round", r.state.CurrentRound).Str("question", q.Prompt).Msg("❓ 新一轮")
}

// scheduleCountdown 按 tick 更新剩余秒数，直到本轮结束
func (r *Room) scheduleCountdown() {
	r.schedule(timerKey{kind: timerCountdown}, r.settings.CountdownTick, func() {
		if !r.round.inProgress {
			return
		}
		secs := int(math.Ceil(r.round.deadline.Sub(r.clock.Now()).Seconds()))
		r.state.TimeRemaining = max(secs, 0)
		if secs > 0 {
			r.scheduleCountdown()
		}
	})
}

// submitAnswer 记录作答。只接受答题阶段内在场玩家的第一次作答
func (r *Room) submitAnswer(p *Player, option int) {
	if r.state.Phase != quiz.PhaseQuiz || !r.round.inProgress {
		return
	}
	if !p.Connected || r.state.Eliminated[p.ID] {
		return
	}
	if _, answered := r.round.answers[p.ID]; answered {
		return
	}

	r.round.answers[p.ID] = answer{
		option:  option,
		elapsed: r.clock.Since(r.round.startedAt),
	}
	r.checkRoundComplete()
}

// checkRoundComplete 所有在场玩家都已作答时立即结束本轮
func (r *Room) checkRoundComplete() {
	if !r.round.inProgress {
		return
	}
	for _, p := range r.state.activePlayers() {
		if _, ok := r.round.answers[p.ID]; !ok {
			return
		}
	}
	r.endRound()
}

// endRound 结算本轮得分
func (r *Room) endRound() {
	if !r.round.inProgress {
		return
	}
	r.round.inProgress = false
	r.cancelTimer(timerKey{kind: timerDeadline})
	r.cancelTimer(timerKey{kind: timerCountdown})

	rules := r.settings.Rules
	q := r.state.CurrentQuestion
	active := r.state.activePlayers()

	results := make(map[string]protocol.PlayerResult, len(active))
	for _, p := range active {
		res := protocol.PlayerResult{
			Answer:    -1,
			TimeTaken: rules.QuestionTime.Milliseconds(),
		}
		if a, ok := r.round.answers[p.ID]; ok {
			res.Answer = a.option
			res.TimeTaken = a.elapsed.Milliseconds()
			res.Correct = q.IsCorrect(a.option)
			res.Points = rules.Points(res.Correct, a.elapsed)
		}
		p.Score += res.Points
		results[p.ID] = res
	}

	scores := make(map[string]int, len(r.state.Players))
	for id, p := range r.state.Players {
		scores[id] = p.Score
	}
	r.state.TimeRemaining = 0

	r.broadcast(codec.MustNewMessage(protocol.MsgRoundResults, protocol.RoundResultsPayload{
		CorrectAnswer: q.Correct,
		PlayerResults: results,
		Scores:        scores,
	}))
	r.log.Info().Int("round", r.state.CurrentRound).Int("answers", len(r.round.answers)).Msg("📊 本轮结束")

	if len(active) <= 1 {
		r.finishGame()
		return
	}
	r.schedule(timerKey{kind: timerNextRound}, r.settings.RoundResultDelay, r.startNextRound)
}

// startElimination 淘汰在场玩家中累计得分最低者
func (r *Room) startElimination() {
	r.state.Phase = quiz.PhaseElimination
	r.state.CurrentQuestion = nil
	r.round.lastEliminated = r.state.CurrentRound

	active := r.state.activePlayers()
	standings := make([]quiz.Standing, 0, len(active))
	for _, p := range active {
		standings = append(standings, quiz.Standing{
			PlayerID: p.ID,
			Score:    p.Score,
			JoinedAt: p.JoinedAt,
			JoinSeq:  p.joinSeq,
		})
	}

	if lowest, ok := quiz.Lowest(standings); ok {
		p := r.state.Players[lowest.PlayerID]
		r.state.Eliminated[p.ID] = true

		r.broadcast(codec.MustNewMessage(protocol.MsgPlayerEliminated, protocol.PlayerEliminatedPayload{
			PlayerID:     p.ID,
			PlayerNumber: p.PlayerNumber(),
			Score:        p.Score,
		}))
		r.publish(events.PlayerEliminated, events.EliminationPayload{
			PlayerID: p.ID,
			Round:    r.state.CurrentRound,
			Score:    p.Score,
		})
		r.log.Info().Str("player_id", p.ID).Int("score", p.Score).Int("round", r.state.CurrentRound).Msg("❌ 玩家被淘汰")
	}

	if len(r.state.activePlayers()) <= 1 {
		r.finishGame()
		return
	}
	r.schedule(timerKey{kind: timerElimination}, r.settings.EliminationDelay, func() {
		r.state.Phase = quiz.PhaseQuiz
		r.startNextRound()
	})
}

// finishGame 宣布结果，稍后重置为等待阶段
func (r *Room) finishGame() {
	if !r.state.Phase.Active() {
		return
	}
	r.round.inProgress = false
	for _, kind := range []timerKind{timerDeadline, timerCountdown, timerNextRound, timerElimination} {
		r.cancelTimer(timerKey{kind: kind})
	}

	r.state.Phase = quiz.PhaseFinished
	r.state.TimeRemaining = 0

	var payload protocol.GameOverPayload
	if active := r.state.activePlayers(); len(active) == 1 {
		w := active[0]
		payload = protocol.GameOverPayload{
			WinnerID:     w.ID,
			WinnerNumber: w.PlayerNumber(),
			WinnerScore:  w.Score,
		}
	} else {
		payload.Tie = true
	}

	r.broadcast(codec.MustNewMessage(protocol.MsgGameOver, payload))
	r.publish(events.GameOver, events.GameOverPayload{
		WinnerID: payload.WinnerID,
		Score:    payload.WinnerScore,
		Tie:      payload.Tie,
		Rounds:   r.state.CurrentRound,
	})
	r.log.Info().Str("winner", payload.WinnerID).Bool("tie", payload.Tie).Msg("🏁 游戏结束")

	r.schedule(timerKey{kind: timerGameReset}, r.settings.GameOverDelay, r.resetToWaiting)
}

// resetToWaiting 清空本局数据，保留玩家、座位、房主和准备状态
func (r *Room) resetToWaiting() {
	r.state.resetGame()
	r.round.reset()
	r.deck.Reset()
	r.log.Info().Msg("🔄 房间已重置为等待阶段")
}

func playerIDs(players []*Player) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}
