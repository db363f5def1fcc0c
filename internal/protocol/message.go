package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgMove           MessageType = "move"             // 位置同步（仅转发）
	MsgHeartbeat      MessageType = "heartbeat"        // 心跳
	MsgStartGame      MessageType = "start_game"       // 房主开始游戏
	MsgSubmitAnswer   MessageType = "submit_answer"    // 提交答案
	MsgSetReadyStatus MessageType = "set_ready_status" // 设置准备状态
	MsgLeave          MessageType = "leave"            // 主动离开
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgJoined MessageType = "joined" // 加入成功（包含重连令牌）

	// 状态同步
	MsgStateSnapshot MessageType = "state_snapshot" // 完整状态
	MsgStateDelta    MessageType = "state_delta"    // 增量状态

	// 房间相关
	MsgSystemMessage     MessageType = "system_message"      // 系统通知
	MsgReadyStatusUpdate MessageType = "ready_status_update" // 准备状态表
	MsgAllPlayersReady   MessageType = "all_players_ready"   // 全员准备

	// 游戏流程
	MsgGameStarted      MessageType = "game_started"      // 游戏开始
	MsgNewQuestion      MessageType = "new_question"      // 新题目
	MsgRoundResults     MessageType = "round_results"     // 本轮结果
	MsgPlayerEliminated MessageType = "player_eliminated" // 玩家淘汰
	MsgGameOver         MessageType = "game_over"         // 游戏结束

	// 错误
	MsgError MessageType = "error" // 错误消息
)
