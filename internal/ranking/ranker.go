// Package ranking 对语料库分块按余弦相似度进行全量打分与排序。
package ranking

import (
	"math"
	"sort"

	"knowledge-qa-go/internal/model"
	"knowledge-qa-go/pkg/errs"
)

// ScoredChunk 是一条带相似度得分的分块记录。
type ScoredChunk struct {
	Chunk model.Chunk
	Score float64
}

// CosineSimilarity 计算两个向量的余弦相似度。
// 维度不一致必须显式报错，绝不截断或补零比较。
// 任一向量模长为 0 时相似度定义为 0，保证排序关系是全序的。
func CosineSimilarity(a, b model.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, &errs.DimensionMismatchError{Want: len(a), Got: len(b)}
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Rank 对所有分块打分并按得分降序返回前 topK 条。
// 使用稳定排序：得分相同的分块保持传入时的相对顺序，使相同语料和问题的结果可复现。
// 空语料返回空序列而不是错误，是否视为失败由调用方决定。
func Rank(queryVector model.Vector, chunks []model.Chunk, topK int) ([]ScoredChunk, error) {
	if len(chunks) == 0 {
		return []ScoredChunk{}, nil
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score, err := CosineSimilarity(queryVector, chunk.Embedding)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	if topK < 0 {
		topK = 0
	}
	return scored[:topK], nil
}
