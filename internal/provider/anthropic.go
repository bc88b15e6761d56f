package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// messageCreator 는 anthropic.MessageService 중 어댑터가 쓰는 부분이다.
type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Anthropic 은 anthropic-sdk-go Messages API 어댑터다. SDK 재시도는 끈다.
type Anthropic struct {
	base
	baseURL string
	version string
	apiKey  string
	client  *http.Client

	mu       sync.Mutex
	messages messageCreator
}

var _ Adapter = (*Anthropic)(nil)

// NewAnthropic 은 Anthropic 어댑터를 생성한다. SDK 클라이언트는 첫 호출 때 만든다.
func NewAnthropic(spec config.ModelSpec, cfg config.ProvidersConfig, client *http.Client) *Anthropic {
	return &Anthropic{
		base:    newBase(spec),
		baseURL: cfg.AnthropicBaseURL,
		version: cfg.AnthropicVersion,
		apiKey:  cfg.Key(config.ProviderAnthropic),
		client:  client,
	}
}

func (a *Anthropic) creator() (messageCreator, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.messages != nil {
		return a.messages, nil
	}
	if !UsableCredential(a.apiKey) {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(a.apiKey),
		option.WithMaxRetries(0),
	}
	if a.baseURL != "" {
		opts = append(opts, option.WithBaseURL(a.baseURL))
	}
	if a.client != nil {
		opts = append(opts, option.WithHTTPClient(a.client))
	}
	if a.version != "" {
		opts = append(opts, option.WithHeader("anthropic-version", a.version))
	}
	client := anthropic.NewClient(opts...)
	a.messages = &client.Messages
	return a.messages, nil
}

func (a *Anthropic) GenerateResponse(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	messages, err := a.creator()
	if err != nil {
		return domain.PromptResponse{}, a.fail(err)
	}
	if err := a.wait(ctx); err != nil {
		return domain.PromptResponse{}, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.spec.Name),
		MaxTokens:   int64(a.maxOutputTokens(req)),
		Temperature: anthropic.Float(Temperature),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt))},
	}
	if req.Context != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Context}}
	}

	msg, err := messages.New(ctx, params)
	if err != nil {
		return domain.PromptResponse{}, a.fail(fmt.Errorf("create message: %w", err))
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	tokens := int(msg.Usage.InputTokens + msg.Usage.OutputTokens)
	return a.respond(req, text.String(), tokens), nil
}
