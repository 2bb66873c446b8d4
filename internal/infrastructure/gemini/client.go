package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/basel-ax/genrelay/internal/domain"
)

// contentGenerator is the subset of *genai.Models used by the client
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client represents the Gemini API client
type Client struct {
	models contentGenerator
	model  string
}

// NewClient creates a new Gemini API client bound to one model
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Client{models: gc.Models, model: model}, nil
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

// Generate implements domain.Generator. The call is attempted exactly once.
func (c *Client) Generate(ctx context.Context, parts []domain.Part) (*domain.GenerationResult, error) {
	if len(parts) == 0 {
		return nil, errors.New("no parts to send")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(toGenaiParts(parts), genai.RoleUser),
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return nil, err
	}
	return toResult(resp)
}

func toGenaiParts(parts []domain.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if p.IsBlob() {
			out = append(out, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		out = append(out, genai.NewPartFromText(p.Text))
	}
	return out
}

// toResult concatenates the text of the first candidate and keeps the first inline image.
func toResult(resp *genai.GenerateContentResponse) (*domain.GenerationResult, error) {
	if resp == nil {
		return nil, errors.New("empty response from model")
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return nil, fmt.Errorf("prompt blocked: %s", fb.BlockReason)
		}
		return nil, errors.New("model returned no candidates")
	}

	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil, fmt.Errorf("model returned no content (finish reason: %s)", cand.FinishReason)
	}

	var (
		text   strings.Builder
		result domain.GenerationResult
	)
	for _, part := range cand.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if blob := part.InlineData; blob != nil && result.Image == nil && strings.HasPrefix(blob.MIMEType, "image/") {
			result.Image = &domain.InlineImage{Data: blob.Data, MIMEType: blob.MIMEType}
		}
	}
	result.Output = text.String()
	return &result, nil
}
