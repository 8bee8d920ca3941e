package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiModel is the slice of the genai client GeminiProvider needs.
type GeminiModel interface {
	Send(ctx context.Context, system string, history []*genai.Content, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GoogleGeminiModel implements GeminiModel with a real genai client.
type GoogleGeminiModel struct {
	client *genai.Client
	name   string
}

func NewGoogleGeminiModel(ctx context.Context, apiKey, modelName string) (*GoogleGeminiModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GoogleGeminiModel{client: client, name: modelName}, nil
}

func (g *GoogleGeminiModel) Send(ctx context.Context, system string, history []*genai.Content, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	// GenerativeModel is cheap; one per call keeps concurrent requests isolated
	model := g.client.GenerativeModel(g.name)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := model.StartChat()
	cs.History = history
	return cs.SendMessage(ctx, parts...)
}

func (g *GoogleGeminiModel) Close() error {
	return g.client.Close()
}

type GeminiProvider struct {
	model GeminiModel
}

func NewGeminiProvider(model GeminiModel) (*GeminiProvider, error) {
	if model == nil {
		return nil, errors.New("gemini: model cannot be nil")
	}
	return &GeminiProvider{model: model}, nil
}

// Close releases the underlying client when the model holds one.
func (p *GeminiProvider) Close() error {
	if c, ok := p.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(m.Content)}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}})
		}
	}
	if len(contents) == 0 || contents[len(contents)-1].Role != "user" {
		return "", errors.New("gemini: conversation must end with a user message")
	}

	last := contents[len(contents)-1]
	resp, err := p.model.Send(ctx, strings.Join(system, "\n\n"), contents[:len(contents)-1], last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return "", fmt.Errorf("gemini: blocked: %s", resp.PromptFeedback.BlockReason.String())
		}
		return "", fmt.Errorf("gemini: %w", ErrEmptyReply)
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyReply)
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String(), nil
}
