package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompletionsProvider talks to any OpenAI-compatible /chat/completions endpoint.
// OpenRouter and the Hugging Face router are both served by it.
type CompletionsProvider struct {
	Name    string // used as the error prefix
	BaseURL string
	APIKey  string
	Model   string
	Headers map[string]string
	Client  *http.Client
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) *CompletionsProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if model == "" {
		model = "openrouter/auto"
	}
	headers := map[string]string{}
	if siteURL != "" {
		headers["HTTP-Referer"] = siteURL
	}
	if appName != "" {
		headers["X-Title"] = appName
	}
	return newCompletionsProvider("openrouter", baseURL, apiKey, model, headers)
}

func NewHuggingFaceProvider(baseURL, apiKey, model string) *CompletionsProvider {
	if baseURL == "" {
		baseURL = "https://router.huggingface.co/novita/v3/openai"
	}
	if model == "" {
		model = "deepseek/deepseek-r1-turbo"
	}
	return newCompletionsProvider("huggingface", baseURL, apiKey, model, nil)
}

func newCompletionsProvider(name, baseURL, apiKey, model string, headers map[string]string) *CompletionsProvider {
	return &CompletionsProvider{
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Headers: headers,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type completionsMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionsReq struct {
	Model    string           `json:"model"`
	Messages []completionsMsg `json:"messages"`
	Stream   bool             `json:"stream"`
}

type completionsResp struct {
	Choices []struct {
		Message completionsMsg `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *CompletionsProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.Client == nil {
		return "", fmt.Errorf("%s: http client is nil", p.Name)
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return "", fmt.Errorf("%s: api key is required", p.Name)
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return "", fmt.Errorf("%s: model is required", p.Name)
	}

	reqBody := completionsReq{Model: model}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, completionsMsg{Role: m.Role, Content: m.Content})
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%s: %s", p.Name, msg)
	}

	var decoded completionsResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%s: decode: %w", p.Name, err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(p.Name + ": " + decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", p.Name, ErrEmptyReply)
	}
	return decoded.Choices[0].Message.Content, nil
}
