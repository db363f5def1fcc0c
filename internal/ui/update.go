package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/quiz-room/internal/game/quiz"
	"github.com/palemoky/quiz-room/internal/protocol"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.timer.Width = min(max(msg.Width-10, 20), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case roomsMsg:
		if msg.err != nil {
			m.err = fmt.Sprintf("获取房间列表失败: %v", msg.err)
			return m, nil
		}
		m.rooms = msg.rooms
		m.selected = min(m.selected, max(len(m.rooms)-1, 0))
		return m, nil

	case connectedMsg:
		if msg.c != m.client {
			return m, nil
		}
		if msg.err != nil {
			msg.c.Close()
			return m, m.backToLobby(fmt.Sprintf("连接失败: %v", msg.err))
		}
		return m, m.listen()

	case serverMsg:
		if msg.c != m.client {
			return m, nil
		}
		return m, tea.Batch(m.handleServerMessage(msg.msg), m.listen())

	case reconnectingMsg:
		if msg.c != m.client {
			return m, nil
		}
		m.notice = fmt.Sprintf("连接中断，正在重连 (%d/%d)...", msg.attempt, msg.maxAttempts)
		return m, m.listen()

	case reconnectedMsg:
		if msg.c != m.client {
			return m, nil
		}
		m.notice = "重连成功"
		return m, m.listen()

	case closedMsg:
		if msg.c != m.client {
			return m, nil
		}
		reason := ""
		if e := m.state.LastError; e != nil {
			reason = e.Message
		}
		return m, m.backToLobby(reason)
	}

	if m.phase == phaseLobby {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleServerMessage(msg *protocol.Message) tea.Cmd {
	if err := m.state.Apply(msg); err != nil {
		m.err = err.Error()
		return nil
	}

	switch msg.Type {
	case protocol.MsgJoined:
		m.phase = phaseRoom
		m.err = ""
		m.input.Blur()
	case protocol.MsgStateSnapshot:
		if me, ok := m.state.Me(); ok {
			m.pose = protocol.MovePayload{X: me.X, Y: me.Y, Z: me.Z, RotationY: me.RotationY}
		}
	case protocol.MsgError:
		if m.phase == phaseRoom {
			m.err = m.state.LastError.Message
		}
	case protocol.MsgNewQuestion:
		m.err = ""
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		if m.client != nil {
			m.client.Close()
		}
		return m, tea.Quit
	}

	switch m.phase {
	case phaseLobby:
		return m.handleLobbyKey(msg)
	case phaseRoom:
		return m, m.handleRoomKey(msg)
	}
	return m, nil
}

func (m *Model) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyUp:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case tea.KeyDown:
		if m.selected < len(m.rooms)-1 {
			m.selected++
		}
		return m, nil
	case tea.KeyCtrlR:
		return m, m.fetchRooms()
	case tea.KeyCtrlN:
		return m, m.connect("", strings.TrimSpace(m.input.Value()))
	case tea.KeyEnter:
		if code := strings.ToUpper(strings.TrimSpace(m.input.Value())); code != "" {
			return m, m.connect(code, "")
		}
		if m.selected < len(m.rooms) {
			return m, m.connect(m.rooms[m.selected].RoomID, "")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleRoomKey(msg tea.KeyMsg) tea.Cmd {
	c := m.client
	if c == nil {
		return nil
	}

	var err error
	key := msg.String()
	switch key {
	case "q", "esc":
		err = c.Leave()
	case "r":
		if me, ok := m.state.Me(); ok {
			err = c.SetReady(!me.IsReady)
		}
	case "s":
		err = c.StartGame()
	case "1", "2", "3", "4":
		if quiz.Phase(m.state.Phase()) == quiz.PhaseQuiz && m.state.Results == nil && m.state.MyAnswer < 0 {
			answer := int(key[0] - '1')
			if err = c.SubmitAnswer(answer); err == nil {
				m.state.MyAnswer = answer
			}
		}
	case "w", "a", "d", "up", "down", "left", "right":
		err = m.move(key)
	}
	if err != nil {
		m.err = err.Error()
	}
	return nil
}

// move 在桌面平面上移动自己
func (m *Model) move(key string) error {
	switch key {
	case "w", "up":
		m.pose.Z -= moveStep
	case "down":
		m.pose.Z += moveStep
	case "a", "left":
		m.pose.X -= moveStep
	case "d", "right":
		m.pose.X += moveStep
	}
	return m.client.Move(m.pose.X, m.pose.Y, m.pose.Z, m.pose.RotationY)
}
