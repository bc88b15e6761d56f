package provider

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/park285/llm-kakao-bots/model-router-go/internal/config"
)

// NewHTTPClient 는 프로바이더 호출용 HTTP 클라이언트를 만든다. 전송 계층은 OTel 로 계측된다.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// BuildAdapters 는 카탈로그 선언 순서대로 어댑터를 생성한다.
func BuildAdapters(catalog config.CatalogConfig, cfg config.ProvidersConfig, client *http.Client) ([]Adapter, error) {
	if client == nil {
		client = NewHTTPClient(time.Duration(cfg.TimeoutSeconds) * time.Second)
	}
	adapters := make([]Adapter, 0, len(catalog.Models))
	for _, spec := range catalog.Models {
		switch spec.Provider {
		case config.ProviderOpenAI:
			adapters = append(adapters, NewOpenAI(spec, cfg, client))
		case config.ProviderDeepSeek:
			adapters = append(adapters, NewDeepSeek(spec, cfg, client))
		case config.ProviderAnthropic:
			adapters = append(adapters, NewAnthropic(spec, cfg, client))
		case config.ProviderGoogle:
			adapters = append(adapters, NewGemini(spec, cfg))
		default:
			return nil, fmt.Errorf("unsupported provider %q for model %s", spec.Provider, spec.ID())
		}
	}
	return adapters, nil
}
