package model

import "time"

// SourceDTO 定义了返回给前端的单条引用来源。
type SourceDTO struct {
	DocumentID  uint    `json:"documentId"`
	FileName    string  `json:"fileName"`
	TextContent string  `json:"textContent"`
	Score       float64 `json:"score"`
}

// QueryResultDTO 定义了问答接口的响应结构。结果不落库，仅在本次请求内有效。
type QueryResultDTO struct {
	Answer  string      `json:"answer"`
	Sources []SourceDTO `json:"sources"`
}

// QueryHistoryEntry 是保存在 Redis 中的一条问答历史。
type QueryHistoryEntry struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"askedAt"`
}
