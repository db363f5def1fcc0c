package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const (
	natsReconnectWait = 2 * time.Second
	natsDrainTimeout  = 5 * time.Second
)

// NATSPublisher 把事件发布到 NATS，subject 形如 <prefix>.<kind>.<roomId>
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher 连接 NATS
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("quiz-room"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(natsReconnectWait),
		nats.DrainTimeout(natsDrainTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: prefix}, nil
}

// Publish 发布事件。nats.Conn.Publish 只写入本地缓冲，不会阻塞房间协程
func (p *NATSPublisher) Publish(e Event) {
	data, err := Encode(e)
	if err != nil {
		log.Error().Err(err).Str("kind", string(e.Kind)).Msg("事件编码失败")
		return
	}
	if err := p.nc.Publish(Subject(p.prefix, e), data); err != nil {
		log.Warn().Err(err).Str("kind", string(e.Kind)).Str("room_id", e.RoomID).Msg("事件发布失败")
	}
}

// Close 刷新缓冲并断开
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Subject 事件的 NATS subject
func Subject(prefix string, e Event) string {
	if prefix == "" {
		return fmt.Sprintf("%s.%s", e.Kind, e.RoomID)
	}
	return fmt.Sprintf("%s.%s.%s", prefix, e.Kind, e.RoomID)
}

// Encode 事件的 JSON 编码
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}
