package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const defaultSendLogKey = "igdm:send_logs"

// SendLogStore keeps the bounded delivery history, most recent first.
type SendLogStore interface {
	Append(ctx context.Context, entry domain.SendLogEntry) error
	List(ctx context.Context) ([]domain.SendLogEntry, error)
	Clear(ctx context.Context) error
}

// RedisSendLogRepo stores entries as JSON in a single capped Redis list.
type RedisSendLogRepo struct {
	client *goredis.Client
	key    string
	limit  int64
}

var _ SendLogStore = (*RedisSendLogRepo)(nil)

func NewRedisSendLogRepo(client *goredis.Client) (*RedisSendLogRepo, error) {
	return NewRedisSendLogRepoWithKey(client, defaultSendLogKey)
}

func NewRedisSendLogRepoWithKey(client *goredis.Client, key string) (*RedisSendLogRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = defaultSendLogKey
	}
	return &RedisSendLogRepo{
		client: client,
		key:    key,
		limit:  domain.MaxSendLogEntries,
	}, nil
}

// Append pushes at the head and trims the tail in one MULTI/EXEC.
func (r *RedisSendLogRepo) Append(ctx context.Context, entry domain.SendLogEntry) error {
	data, err := json.Marshal(sendLogRecordFromDomain(entry))
	if err != nil {
		return fmt.Errorf("failed to marshal send log entry: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, r.limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append send log entry: %w", err)
	}
	return nil
}

func (r *RedisSendLogRepo) List(ctx context.Context) ([]domain.SendLogEntry, error) {
	raw, err := r.client.LRange(ctx, r.key, 0, r.limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read send log: %w", err)
	}

	entries := make([]domain.SendLogEntry, 0, len(raw))
	for _, item := range raw {
		var record sendLogRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to decode send log entry: %w", err)
		}
		entries = append(entries, sendLogRecordToDomain(record))
	}
	return entries, nil
}

func (r *RedisSendLogRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear send log: %w", err)
	}
	return nil
}
