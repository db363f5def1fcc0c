// Package ui 终端问答客户端
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/quiz-room/internal/client"
	"github.com/palemoky/quiz-room/internal/protocol"
)

const (
	requestTimeout = 5 * time.Second
	moveStep       = 0.25
)

type phase int

const (
	phaseLobby phase = iota
	phaseConnecting
	phaseRoom
)

// --- tea 消息 ---

type roomsMsg struct {
	rooms []protocol.RoomListItem
	err   error
}

type connectedMsg struct {
	c   *client.Client
	err error
}

type serverMsg struct {
	c   *client.Client
	msg *protocol.Message
}

type closedMsg struct{ c *client.Client }

type reconnectingMsg struct {
	c                    *client.Client
	attempt, maxAttempts int
}

type reconnectedMsg struct{ c *client.Client }

// Model 顶层模型
type Model struct {
	serverURL string

	client *client.Client
	events chan tea.Msg
	state  *client.State
	phase  phase

	input    textinput.Model
	timer    progress.Model
	rooms    []protocol.RoomListItem
	selected int

	err    string
	notice string
	pose   protocol.MovePayload

	width, height int
}

// NewModel 创建模型，serverURL 形如 http://localhost:2567
func NewModel(serverURL string) *Model {
	ti := textinput.New()
	ti.Placeholder = "房间号，或按 Ctrl+N 用输入内容作为房间名创建"
	ti.CharLimit = 64
	ti.Width = 48
	ti.Focus()

	return &Model{
		serverURL: strings.TrimRight(serverURL, "/"),
		state:     client.NewState(),
		phase:     phaseLobby,
		input:     ti,
		timer:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchRooms())
}

func (m *Model) fetchRooms() tea.Cmd {
	c := client.New(m.serverURL, nil)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rooms, err := c.ListRooms(ctx)
		return roomsMsg{rooms: rooms, err: err}
	}
}

// connect 创建新客户端并加入房间。roomID 为空时先创建房间
func (m *Model) connect(roomID, roomName string) tea.Cmd {
	c := client.New(m.serverURL, nil)
	events := make(chan tea.Msg, 8)
	c.OnReconnecting = func(attempt, maxAttempts int) {
		select {
		case events <- reconnectingMsg{c: c, attempt: attempt, maxAttempts: maxAttempts}:
		default:
		}
	}
	c.OnReconnect = func() {
		select {
		case events <- reconnectedMsg{c: c}:
		default:
		}
	}

	if m.client != nil {
		m.client.Close()
	}
	m.client = c
	m.events = events
	m.state = client.NewState()
	m.phase = phaseConnecting
	m.err = ""

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if roomID == "" {
			id, err := c.CreateRoom(ctx, roomName)
			if err != nil {
				return connectedMsg{c: c, err: err}
			}
			roomID = id
		}
		if err := c.Join(ctx, roomID); err != nil {
			return connectedMsg{c: c, err: err}
		}
		c.StartHeartbeat()
		return connectedMsg{c: c}
	}
}

// listen 等待当前客户端的下一条消息
func (m *Model) listen() tea.Cmd {
	c, events := m.client, m.events
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case msg := <-c.Messages():
			return serverMsg{c: c, msg: msg}
		case ev := <-events:
			return ev
		case <-c.Done():
			return closedMsg{c: c}
		}
	}
}

func (m *Model) backToLobby(reason string) tea.Cmd {
	m.phase = phaseLobby
	m.client = nil
	m.events = nil
	m.notice = ""
	m.err = reason
	m.input.Reset()
	m.input.Focus()
	return m.fetchRooms()
}
