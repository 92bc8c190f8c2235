// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"knowledge-qa-go/internal/config"
	"knowledge-qa-go/pkg/llm"
)

// 上下文分块之间的拼接分隔符。
const contextSeparator = "\n---\n"

// 默认的 system 提示：把模型限制在给定上下文内，宁可承认不知道也不要编造。
const defaultPromptRules = "You are a helpful assistant. Use the provided context to answer the user's question. " +
	"If the answer is not in the context, say you do not know instead of inventing facts."

// AnswerSynthesizer 根据检索到的上下文分块与问题生成有依据的回答。
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, contextChunks []string, question string) (string, error)
}

type answerSynthesizer struct {
	llmClient llm.Client
	cfg       config.LLMConfig
}

// NewAnswerSynthesizer 创建一个新的 AnswerSynthesizer 实例。
func NewAnswerSynthesizer(llmClient llm.Client, cfg config.LLMConfig) AnswerSynthesizer {
	return &answerSynthesizer{
		llmClient: llmClient,
		cfg:       cfg,
	}
}

// Synthesize 构建两段式提示（system 规则 + 嵌入上下文与问题的 user 消息）并调用聊天接口。
// 生成参数取自配置（低温度、有界输出），组件内部不做任何重试，重试策略属于调用方。
func (s *answerSynthesizer) Synthesize(ctx context.Context, contextChunks []string, question string) (string, error) {
	rules := s.cfg.Prompt.Rules
	if rules == "" {
		rules = defaultPromptRules
	}

	contextText := strings.Join(contextChunks, contextSeparator)
	userContent := fmt.Sprintf(
		"Based only on the context below, answer the question.\nIf the answer is not in the context, say you do not know.\n\nContext:\n%s\n\nQuestion:\n%s\n\nAnswer:",
		contextText, question)

	messages := []llm.Message{
		{Role: "system", Content: rules},
		{Role: "user", Content: userContent},
	}

	return s.llmClient.ChatCompletion(ctx, messages, nil)
}
