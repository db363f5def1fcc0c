package protocol

// --- 客户端请求 Payloads ---

// MovePayload 位置与朝向（服务端不校验，直接采纳）
type MovePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	RotationY float64 `json:"rotationY"`
}

// SubmitAnswerPayload 提交答案
type SubmitAnswerPayload struct {
	Answer int `json:"answer"` // 选项下标 0-3
}

// SetReadyStatusPayload 设置准备状态
type SetReadyStatusPayload struct {
	Ready bool `json:"ready"`
}

// --- 服务端响应 Payloads ---

// JoinedPayload 加入/重连成功响应
type JoinedPayload struct {
	PlayerID       string `json:"playerId"`
	RoomID         string `json:"roomId"`
	ReconnectToken string `json:"reconnectToken"` // 重连令牌
	Reconnected    bool   `json:"reconnected,omitempty"`
}

// SystemMessagePayload 系统通知
type SystemMessagePayload struct {
	Message string `json:"message"`
}

// ReadyStatusPayload 准备状态表，同时以玩家 ID 和玩家编号为键
type ReadyStatusPayload map[string]bool

// AllPlayersReadyPayload 全员准备通知
type AllPlayersReadyPayload struct {
	Ready bool `json:"ready"`
}

// GameStartedPayload 游戏开始通知
type GameStartedPayload struct {
	Started bool `json:"started"`
}

// NewQuestionPayload 新题目（不包含正确答案）
type NewQuestionPayload struct {
	Question  string   `json:"question"`
	Options   []string `json:"options"`
	TimeLimit int      `json:"timeLimit"` // 秒
	Round     int      `json:"round"`
}

// PlayerResult 单个玩家的本轮结果
type PlayerResult struct {
	Correct   bool  `json:"correct"`
	Answer    int   `json:"answer"`    // 未作答为 -1
	TimeTaken int64 `json:"timeTaken"` // 毫秒
	Points    int   `json:"points"`
}

// RoundResultsPayload 本轮结果
type RoundResultsPayload struct {
	CorrectAnswer int                     `json:"correctAnswer"`
	PlayerResults map[string]PlayerResult `json:"playerResults"`
	Scores        map[string]int          `json:"scores"`
}

// PlayerEliminatedPayload 玩家淘汰通知
type PlayerEliminatedPayload struct {
	PlayerID     string `json:"playerId"`
	PlayerNumber int    `json:"playerNumber"`
	Score        int    `json:"score"`
}

// GameOverPayload 游戏结束通知，Tie 为 true 时没有胜者
type GameOverPayload struct {
	WinnerID     string `json:"winnerId,omitempty"`
	WinnerNumber int    `json:"winnerNumber,omitempty"`
	WinnerScore  int    `json:"winnerScore,omitempty"`
	Tie          bool   `json:"tie,omitempty"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- HTTP 接口 ---

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	RoomName        string `json:"roomName"`
	CreatedByPlayer bool   `json:"createdByPlayer"`
}

// CreateRoomResponse 创建房间响应
type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"maxClients"`
	CreatedAt  int64  `json:"createdAt"` // Unix 毫秒
	Phase      string `json:"phase"`
}
