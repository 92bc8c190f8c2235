package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"knowledge-qa-go/internal/model"
)

// 历史记录的 Redis key 与保留条数上限。
const (
	queryHistoryKey = "query:history"
	queryHistoryCap = 100
)

// QueryHistoryRepository 定义了问答历史记录的操作接口。
type QueryHistoryRepository interface {
	Append(ctx context.Context, entry model.QueryHistoryEntry) error
	Recent(ctx context.Context, limit int64) ([]model.QueryHistoryEntry, error)
}

type redisQueryHistoryRepository struct {
	redisClient *redis.Client
}

// NewQueryHistoryRepository 创建一个新的 QueryHistoryRepository 实例。
func NewQueryHistoryRepository(redisClient *redis.Client) QueryHistoryRepository {
	return &redisQueryHistoryRepository{redisClient: redisClient}
}

// Append 追加一条问答历史，仅保留最近 queryHistoryCap 条。
func (r *redisQueryHistoryRepository) Append(ctx context.Context, entry model.QueryHistoryEntry) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal query history entry: %w", err)
	}
	if err := r.redisClient.LPush(ctx, queryHistoryKey, jsonData).Err(); err != nil {
		return fmt.Errorf("failed to push query history entry: %w", err)
	}
	return r.redisClient.LTrim(ctx, queryHistoryKey, 0, queryHistoryCap-1).Err()
}

// Recent 返回最近的 limit 条问答历史，最新的在前。
func (r *redisQueryHistoryRepository) Recent(ctx context.Context, limit int64) ([]model.QueryHistoryEntry, error) {
	if limit <= 0 || limit > queryHistoryCap {
		limit = queryHistoryCap
	}
	values, err := r.redisClient.LRange(ctx, queryHistoryKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read query history: %w", err)
	}

	entries := make([]model.QueryHistoryEntry, 0, len(values))
	for _, v := range values {
		var entry model.QueryHistoryEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			// 单条损坏不影响整体读取
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
