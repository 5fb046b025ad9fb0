package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GenerateRequest is the draft context sent to the copywriting provider.
type GenerateRequest struct {
	Title   string   `json:"title" validate:"required,max=120"`
	Summary string   `json:"summary" validate:"max=2000"`
	Tags    []string `json:"tags,omitempty" validate:"max=10"`
}

// GeneratedContent is one provider result, stored as a candidate on the
// draft.
type GeneratedContent struct {
	ShortDescription string   `json:"shortDescription"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
}

// Provider produces draft copy. The limiter gates whether it is called; it
// never calls the provider itself.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedContent, error)
}

// HTTPProvider calls an external copywriting endpoint over HTTPS. The client
// timeout bounds how long a hung call can hold a dedup slot or a draft lock.
type HTTPProvider struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPProvider(url, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Generate(ctx context.Context, req GenerateRequest) (*GeneratedContent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding provider request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, snippet)
	}

	var content GeneratedContent
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	return &content, nil
}
