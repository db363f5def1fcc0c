package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
)

// shownNotices 房间界面显示的最近通知条数
const shownNotices = 4

func (m *Model) View() string {
	var body string
	switch m.phase {
	case phaseConnecting:
		body = TitleStyle.Render("🧠 问答房间") + "\n\n正在连接..."
	case phaseRoom:
		body = m.roomView()
	default:
		body = m.lobbyView()
	}
	return DocStyle.Render(body)
}

func (m *Model) lobbyView() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("🧠 问答房间"))
	sb.WriteString("\n\n")

	lines := []string{"可加入的房间:", ""}
	if len(m.rooms) == 0 {
		lines = append(lines, HintStyle.Render("  (暂无房间)"))
	}
	for i, r := range m.rooms {
		line := fmt.Sprintf("%s  %-16s %d/%d", r.RoomID, r.Name, r.Clients, r.MaxClients)
		if i == m.selected {
			line = SelectedStyle.Render("▶ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	sb.WriteString(BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}
	sb.WriteString(HintStyle.Render("Enter 加入 · Ctrl+N 创建 · ↑/↓ 选择 · Ctrl+R 刷新 · Esc 退出"))
	return sb.String()
}

func (m *Model) roomView() string {
	s := m.state
	room := s.Room
	if room == nil {
		return "等待房间状态..."
	}

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(fmt.Sprintf("🧠 %s", room.RoomName)))
	sb.WriteString(HintStyle.Render(fmt.Sprintf("  房间号 %s", room.RoomID)))
	sb.WriteString("\n\n")

	sb.WriteString(BoxStyle.Render(m.playersView()))
	sb.WriteString("\n\n")

	switch quiz.Phase(room.GamePhase) {
	case quiz.PhaseQuiz:
		if s.Results != nil {
			sb.WriteString(m.resultsView())
		} else {
			sb.WriteString(m.questionView())
		}
	case quiz.PhaseElimination:
		sb.WriteString(m.eliminationView())
	case quiz.PhaseFinished:
		sb.WriteString(m.gameOverView())
	default:
		sb.WriteString(m.waitingView())
	}
	sb.WriteString("\n\n")

	notices := s.Notices
	if len(notices) > shownNotices {
		notices = notices[len(notices)-shownNotices:]
	}
	for _, n := range notices {
		sb.WriteString(HintStyle.Render("· " + n))
		sb.WriteString("\n")
	}
	if m.notice != "" {
		sb.WriteString(WarnStyle.Render(m.notice))
		sb.WriteString("\n")
	}
	if m.err != "" {
		sb.WriteString(ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}
	sb.WriteString(HintStyle.Render(m.hints()))
	return sb.String()
}

func (m *Model) playersView() string {
	s := m.state
	seated := make(map[int]protocol.PlayerState)
	var standing []protocol.PlayerState
	for _, p := range s.Players() {
		if p.SeatIndex >= 0 {
			seated[p.SeatIndex] = p
		} else {
			standing = append(standing, p)
		}
	}

	lines := make([]string, 0, protocol.NumSeats+len(standing))
	for seat := range protocol.NumSeats {
		p, ok := seated[seat]
		if !ok {
			lines = append(lines, EmptySeatStyle.Render(fmt.Sprintf("座位 %d  (空)", seat+1)))
			continue
		}
		lines = append(lines, m.playerLine(fmt.Sprintf("座位 %d", seat+1), p))
	}
	for _, p := range standing {
		lines = append(lines, m.playerLine("旁观  ", p))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) playerLine(label string, p protocol.PlayerState) string {
	name := shortID(p.ID)
	if p.ID == m.state.Session.PlayerID {
		name += " (你)"
	}

	var flags []string
	if p.IsHost {
		flags = append(flags, HostIcon)
	}
	if p.IsReady {
		flags = append(flags, ReadyIcon)
	}
	if !p.Connected {
		flags = append(flags, OfflineIcon)
	}
	if m.state.IsEliminated(p.ID) {
		flags = append(flags, EliminatedIcon)
	}
	return fmt.Sprintf("%s  %-14s %5d 分  %s", label, name, p.Score, strings.Join(flags, " "))
}

func (m *Model) waitingView() string {
	if m.state.AllReady {
		if m.state.IsHost() {
			return SuccessStyle.Render("所有玩家已准备，按 s 开始游戏")
		}
		return SuccessStyle.Render("所有玩家已准备，等待房主开始")
	}
	return "等待玩家准备（至少 2 人）"
}

func (m *Model) questionView() string {
	s := m.state
	q := s.Question
	if q == nil {
		return "等待题目..."
	}

	var sb strings.Builder
	sb.WriteString(QuestionStyle.Render(fmt.Sprintf("第 %d 轮: %s", q.Round, q.Question)))
	sb.WriteString("\n")
	for i, opt := range q.Options {
		line := fmt.Sprintf("  %d. %s", i+1, opt)
		if i == s.MyAnswer {
			line = MyAnswerStyle.Render(line + "  ←")
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	remaining := s.Room.TimeRemaining
	ratio := 0.0
	if q.TimeLimit > 0 {
		ratio = float64(remaining) / float64(q.TimeLimit)
	}
	sb.WriteString(m.timer.ViewAs(min(max(ratio, 0), 1)))
	sb.WriteString(fmt.Sprintf(" %ds", remaining))

	if me, ok := s.Me(); ok && s.IsEliminated(me.ID) {
		sb.WriteString("\n")
		sb.WriteString(WarnStyle.Render("你已被淘汰，正在观战"))
	}
	return sb.String()
}

func (m *Model) resultsView() string {
	s := m.state
	r := s.Results
	if r == nil {
		return "统计中..."
	}

	var sb strings.Builder
	if q := s.Question; q != nil && r.CorrectAnswer >= 0 && r.CorrectAnswer < len(q.Options) {
		sb.WriteString(fmt.Sprintf("正确答案: %d. %s\n\n", r.CorrectAnswer+1, q.Options[r.CorrectAnswer]))
	}
	for _, p := range s.Standings() {
		res, ok := r.PlayerResults[p.ID]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%-14s +%-4d 用时 %.1fs", shortID(p.ID), res.Points, float64(res.TimeTaken)/1000)
		if res.Correct {
			line = CorrectStyle.Render("✔ " + line)
		} else {
			line = WrongStyle.Render("✘ " + line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (m *Model) eliminationView() string {
	el := m.state.Eliminated
	if len(el) == 0 {
		return "淘汰中..."
	}
	last := el[len(el)-1]
	return WarnStyle.Render(fmt.Sprintf("%s 玩家 %d 被淘汰（%d 分）", EliminatedIcon, last.PlayerNumber, last.Score))
}

func (m *Model) gameOverView() string {
	g := m.state.GameOver
	switch {
	case g == nil:
		return "游戏结束"
	case g.Tie:
		return WarnStyle.Render("游戏结束：平局")
	case g.WinnerID == m.state.Session.PlayerID:
		return SuccessStyle.Render(fmt.Sprintf("🏆 你赢了！%d 分", g.WinnerScore))
	default:
		return SuccessStyle.Render(fmt.Sprintf("🏆 玩家 %d 获胜，%d 分", g.WinnerNumber, g.WinnerScore))
	}
}

func (m *Model) hints() string {
	switch quiz.Phase(m.state.Phase()) {
	case quiz.PhaseQuiz:
		return "1-4 作答 · 方向键移动 · q 离开"
	case quiz.PhaseWaiting:
		if m.state.IsHost() {
			return "r 准备/取消 · s 开始 · 方向键移动 · q 离开"
		}
		return "r 准备/取消 · 方向键移动 · q 离开"
	default:
		return "方向键移动 · q 离开"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
