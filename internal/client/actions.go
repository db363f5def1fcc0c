package client

import "github.com/palemoky/quiz-room/internal/protocol"

// Move 同步位置
func (c *Client) Move(x, y, z, rotationY float64) error {
	return c.Send(protocol.MsgMove, protocol.MovePayload{X: x, Y: y, Z: z, RotationY: rotationY})
}

// Heartbeat 发送心跳
func (c *Client) Heartbeat() error {
	return c.Send(protocol.MsgHeartbeat, nil)
}

// SetReady 设置准备状态
func (c *Client) SetReady(ready bool) error {
	return c.Send(protocol.MsgSetReadyStatus, protocol.SetReadyStatusPayload{Ready: ready})
}

// StartGame 房主开始游戏
func (c *Client) StartGame() error {
	return c.Send(protocol.MsgStartGame, nil)
}

// SubmitAnswer 提交答案，answer 为选项下标
func (c *Client) SubmitAnswer(answer int) error {
	return c.Send(protocol.MsgSubmitAnswer, protocol.SubmitAnswerPayload{Answer: answer})
}
