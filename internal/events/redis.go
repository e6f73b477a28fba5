package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher はRedis Pub/Subで操作イベントを配信する
// チャンネル名は prefix + documentId
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

// NewRedisPublisher はRedis URLからRedisPublisherを作成する
func NewRedisPublisher(redisURL, prefix string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// 接続確認
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, prefix), nil
}

// NewRedisPublisherWithClient は既存のクライアントからRedisPublisherを作成する
func NewRedisPublisherWithClient(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return &RedisPublisher{
		client: client,
		prefix: prefix,
	}
}

// Channel はドキュメントIDに対応するチャンネル名を返す
func (p *RedisPublisher) Channel(documentID string) string {
	return p.prefix + documentID
}

// Publish はイベントをJSONでPUBLISHする
func (p *RedisPublisher) Publish(ctx context.Context, event OperationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(event.DocumentID), data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe はドキュメントのイベントを購読する
// 返されたチャンネルはctxのキャンセルで閉じられる
func (p *RedisPublisher) Subscribe(ctx context.Context, documentID string) (<-chan OperationEvent, error) {
	sub := p.client.Subscribe(ctx, p.Channel(documentID))
	// 購読確立を待つ
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan OperationEvent)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event OperationEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close はRedisクライアントをクローズする
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
