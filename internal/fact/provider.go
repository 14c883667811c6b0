// Package fact は映画の豆知識を言語モデルから取得する機能を提供する。
package fact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyFact はモデル応答に本文が含まれていない場合のエラー。
var ErrEmptyFact = errors.New("fact provider returned no content")

// Provider は映画タイトルから豆知識を生成するインターフェース。
type Provider interface {
	GenerateFact(ctx context.Context, title string) (string, error)
}

// BuildPrompt は豆知識生成用のプロンプトを組み立てる。
func BuildPrompt(title string) string {
	return fmt.Sprintf(`Tell me one interesting and fun fact about the movie "%s". Keep it concise and engaging, around 1-2 sentences.`, title)
}

// OpenAIConfig はOpenAIProviderの設定。
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32

	// BaseURL が空の場合はライブラリのデフォルト（api.openai.com）を使用する。
	BaseURL string
	// HTTPClient が未指定の場合はライブラリのデフォルトクライアントを使用する。
	HTTPClient *http.Client
}

// OpenAIProvider はOpenAI Chat Completions APIで豆知識を生成する。
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider はOpenAIProviderを生成する。
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// GenerateFact は1件のユーザーメッセージでチャット補完を呼び出し、最初の候補の本文を返す。
// 候補が無い、または本文が空白のみの場合はErrEmptyFactを返す。
func (p *OpenAIProvider) GenerateFact(ctx context.Context, title string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(title)},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyFact
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyFact
	}

	return content, nil
}

var _ Provider = (*OpenAIProvider)(nil)
