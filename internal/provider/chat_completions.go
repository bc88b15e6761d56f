package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// chatGenerator 는 eino ChatModel 중 어댑터가 쓰는 부분이다.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatCompletions 는 OpenAI 호환 chat completions 어댑터다. (OpenAI, DeepSeek)
// eino-ext openai ChatModel 위에서 동작하며 SDK 는 재시도하지 않는다.
type ChatCompletions struct {
	base
	baseURL string
	apiKey  string
	client  *http.Client

	mu    sync.Mutex
	model chatGenerator
}

var _ Adapter = (*ChatCompletions)(nil)

// NewOpenAI 는 OpenAI 어댑터를 생성한다.
func NewOpenAI(spec config.ModelSpec, cfg config.ProvidersConfig, client *http.Client) *ChatCompletions {
	return newChatCompletions(spec, cfg.OpenAIBaseURL, cfg.Key(config.ProviderOpenAI), client)
}

// NewDeepSeek 는 DeepSeek 어댑터를 생성한다.
func NewDeepSeek(spec config.ModelSpec, cfg config.ProvidersConfig, client *http.Client) *ChatCompletions {
	return newChatCompletions(spec, cfg.DeepSeekBaseURL, cfg.Key(config.ProviderDeepSeek), client)
}

func newChatCompletions(spec config.ModelSpec, baseURL, apiKey string, client *http.Client) *ChatCompletions {
	return &ChatCompletions{
		base:    newBase(spec),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (c *ChatCompletions) generator(ctx context.Context) (chatGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return c.model, nil
	}
	if !UsableCredential(c.apiKey) {
		return nil, ErrMissingAPIKey
	}
	chatModel, err := openai.NewChatModel(context.WithoutCancel(ctx), &openai.ChatModelConfig{
		APIKey:     c.apiKey,
		BaseURL:    c.baseURL,
		Model:      c.spec.Name,
		HTTPClient: c.client,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	c.model = chatModel
	return c.model, nil
}

func (c *ChatCompletions) GenerateResponse(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	generator, err := c.generator(ctx)
	if err != nil {
		return domain.PromptResponse{}, c.fail(err)
	}
	if err := c.wait(ctx); err != nil {
		return domain.PromptResponse{}, err
	}

	messages := make([]*schema.Message, 0, 2)
	if req.Context != "" {
		messages = append(messages, schema.SystemMessage(req.Context))
	}
	messages = append(messages, schema.UserMessage(req.Prompt))

	out, err := generator.Generate(ctx, messages,
		model.WithMaxTokens(c.maxOutputTokens(req)),
		model.WithTemperature(float32(Temperature)),
	)
	if err != nil {
		return domain.PromptResponse{}, c.fail(fmt.Errorf("generate: %w", err))
	}
	if out == nil {
		return domain.PromptResponse{}, c.fail(errors.New("empty completion"))
	}

	tokens := 0
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		tokens = out.ResponseMeta.Usage.TotalTokens
	}
	return c.respond(req, out.Content, tokens), nil
}
