// Package client 实现问答房间的 WebSocket 客户端：HTTP 建房、加入、断线重连
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/palemoky/quiz-room/internal/protocol"
	"github.com/palemoky/quiz-room/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	sendBufferSize   = 256

	// 心跳间隔，远小于服务端的不活跃判定
	heartbeatInterval = 5 * time.Second

	maxReconnectAttempts = 5
	reconnectInterval    = 500 * time.Millisecond
	maxReconnectBackoff  = 8 * time.Second
)

var (
	ErrClosed          = errors.New("connection closed")
	ErrNotConnected    = errors.New("not connected")
	ErrSendBufferFull  = errors.New("send buffer full")
	ErrReconnectFailed = errors.New("reconnect attempts exhausted")
)

// Session 服务端在 joined 消息中下发的身份
type Session struct {
	PlayerID string
	RoomID   string
	Token    string
}

// link 一条 WebSocket 连接及其读写协程
type link struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (l *link) stop() {
	l.once.Do(func() { close(l.done) })
}

// Client 问答房间客户端
type Client struct {
	ServerURL string // http://host:port

	// ReconnectInterval 首次重连前的等待，之后指数退避
	ReconnectInterval time.Duration

	// 回调在客户端协程中执行，不能阻塞
	OnReconnecting func(attempt, maxAttempts int)
	OnReconnect    func()
	OnClose        func(err error)

	clock  clockwork.Clock
	http   *http.Client
	dialer *websocket.Dialer

	messages chan *protocol.Message
	done     chan struct{}

	mu             sync.RWMutex
	link           *link
	session        Session
	closed         bool
	leaving        bool
	reconnectCount int

	reconnecting atomic.Bool
}

// New 创建客户端。clock 为 nil 时使用真实时钟
func New(serverURL string, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		ServerURL:         strings.TrimRight(serverURL, "/"),
		ReconnectInterval: reconnectInterval,
		clock:             clock,
		http:              &http.Client{Timeout: handshakeTimeout},
		dialer:            &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		messages:          make(chan *protocol.Message, sendBufferSize),
		done:              make(chan struct{}),
	}
}

// Messages 服务端消息。Done 关闭后不再有新消息
func (c *Client) Messages() <-chan *protocol.Message { return c.messages }

// Done 客户端关闭时关闭
func (c *Client) Done() <-chan struct{} { return c.done }

// Session 当前身份，尚未收到 joined 时为零值
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}

// CreateRoom 通过 HTTP 创建房间，返回房间号
func (c *Client) CreateRoom(ctx context.Context, name string) (string, error) {
	body, err := json.Marshal(protocol.CreateRoomRequest{RoomName: name, CreatedByPlayer: true})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ServerURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out protocol.CreateRoomResponse
	if err := c.doJSON(req, http.StatusCreated, &out); err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	return out.RoomID, nil
}

// ListRooms 获取可加入的房间
func (c *Client) ListRooms(ctx context.Context) ([]protocol.RoomListItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ServerURL+"/rooms", nil)
	if err != nil {
		return nil, err
	}
	var out []protocol.RoomListItem
	if err := c.doJSON(req, http.StatusOK, &out); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return out, nil
}

func (c *Client) doJSON(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e protocol.ErrorPayload
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			return fmt.Errorf("%s (%d)", e.Message, e.Code)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Join 连接服务器并加入房间。结果通过 joined 或 error 消息返回
func (c *Client) Join(ctx context.Context, roomID string) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return c.dial(ctx, url.Values{"room": {roomID}})
}

// wsURL 把 http(s) 地址转换为 ws(s)
func (c *Client) wsURL(q url.Values) (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) dial(ctx context.Context, q url.Values) error {
	target, err := c.wsURL(q)
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return err
	}

	l := &link{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.link = l
	c.mu.Unlock()

	go c.readPump(l)
	go c.writePump(l)
	return nil
}

// Send 发送消息
func (c *Client) Send(msgType protocol.MessageType, payload any) error {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	data, err := codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	l := c.link
	if l == nil {
		return ErrNotConnected
	}
	select {
	case <-l.done:
		return ErrNotConnected
	default:
	}

	select {
	case l.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close 正常关闭连接，服务端会立即移除玩家
func (c *Client) Close() {
	c.shutdown(nil)
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	l := c.link
	close(c.done)
	c.mu.Unlock()

	if l != nil {
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		l.stop()
		_ = l.conn.Close()
	}
	if c.OnClose != nil {
		c.OnClose(err)
	}
}
