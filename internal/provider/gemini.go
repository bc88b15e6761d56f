package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
	"github.com/park285/llm-kakao-bots/model-router-go/internal/domain"
)

// contentGenerator 는 genai.Models 중 어댑터가 쓰는 부분이다.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini 는 google.golang.org/genai SDK 기반 어댑터다.
type Gemini struct {
	base
	apiKey  string
	timeout time.Duration

	mu     sync.Mutex
	models contentGenerator
}

var _ Adapter = (*Gemini)(nil)

// NewGemini 는 Gemini 어댑터를 생성한다. SDK 클라이언트는 첫 호출 때 만든다.
func NewGemini(spec config.ModelSpec, cfg config.ProvidersConfig) *Gemini {
	return &Gemini{
		base:    newBase(spec),
		apiKey:  cfg.Key(config.ProviderGoogle),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

func (g *Gemini) generator(ctx context.Context) (contentGenerator, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.models != nil {
		return g.models, nil
	}
	if !UsableCredential(g.apiKey) {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			Timeout: genai.Ptr(g.timeout),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.models = client.Models
	return g.models, nil
}

func (g *Gemini) GenerateResponse(ctx context.Context, req domain.PromptRequest) (domain.PromptResponse, error) {
	models, err := g.generator(ctx)
	if err != nil {
		return domain.PromptResponse{}, g.fail(err)
	}
	if err := g.wait(ctx); err != nil {
		return domain.PromptResponse{}, err
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(Temperature)),
		MaxOutputTokens: int32(g.maxOutputTokens(req)),
	}
	if req.Context != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.Context, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := models.GenerateContent(ctx, g.spec.Name, contents, genCfg)
	if err != nil {
		return domain.PromptResponse{}, g.fail(fmt.Errorf("generate content: %w", err))
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return g.respond(req, resp.Text(), tokens), nil
}
