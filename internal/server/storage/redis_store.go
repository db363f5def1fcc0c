package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "quiz:room:"

	// 房间数据过期时间，房间存活期间每次变化都会刷新
	roomExpiration = 2 * time.Hour
)

// RoomData 房间概要，多个实例共用 Redis 时据此避免房间号冲突
type RoomData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Clients    int    `json:"clients"`
	MaxClients int    `json:"max_clients"`
	Phase      string `json:"phase"`
	CreatedAt  int64  `json:"created_at"` // Unix 毫秒
	UpdatedAt  int64  `json:"updated_at"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储，client 为 nil 时所有操作都是空操作
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (rs *RedisStore) enabled() bool {
	return rs != nil && rs.client != nil
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	if !rs.enabled() {
		return nil
	}
	return rs.client.Ping(ctx).Err()
}

// SaveRoom 保存房间概要并刷新过期时间
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if !rs.enabled() || data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}
	return rs.client.Set(ctx, roomKeyPrefix+data.ID, jsonData, roomExpiration).Err()
}

// LoadRoom 加载房间概要，不存在时返回 nil, nil。房间号分配时用来避开其他实例的房间
func (rs *RedisStore) LoadRoom(ctx context.Context, id string) (*RoomData, error) {
	if !rs.enabled() {
		return nil, nil
	}

	data, err := rs.client.Get(ctx, roomKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &roomData, nil
}

// DeleteRoom 删除房间概要
func (rs *RedisStore) DeleteRoom(ctx context.Context, id string) error {
	if !rs.enabled() {
		return nil
	}

	return rs.client.Del(ctx, roomKeyPrefix+id).Err()
}

// Close 关闭连接
func (rs *RedisStore) Close() error {
	if !rs.enabled() {
		return nil
	}
	return rs.client.Close()
}
