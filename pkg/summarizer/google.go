package summarizer

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleGemini20Flash is the default Gemini model.
const GoogleGemini20Flash = "gemini-2.0-flash"

// Google implements Summarizer using the Gemini API.
type Google struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	baseURL     string
}

// GoogleOption is a functional option for configuring Google.
type GoogleOption func(*Google)

// WithGoogleModel sets the model to use.
func WithGoogleModel(model string) GoogleOption {
	return func(g *Google) {
		if model != "" {
			g.model = model
		}
	}
}

// WithGoogleTemperature sets the sampling temperature.
func WithGoogleTemperature(t float32) GoogleOption {
	return func(g *Google) {
		g.temperature = t
	}
}

// WithGoogleMaxTokens limits the size of the generated answer.
func WithGoogleMaxTokens(n int32) GoogleOption {
	return func(g *Google) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithGoogleBaseURL overrides the API endpoint. Used for proxies and tests.
func WithGoogleBaseURL(url string) GoogleOption {
	return func(g *Google) {
		g.baseURL = url
	}
}

// NewGoogle creates a Gemini summarizer authenticated with an API key.
func NewGoogle(ctx context.Context, apiKey string, opts ...GoogleOption) (*Google, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	g := &Google{
		model:       GoogleGemini20Flash,
		temperature: 0.2,
		maxTokens:   100,
	}
	for _, opt := range opts {
		opt(g)
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClientCreationFailed, err)
	}
	g.client = client

	return g, nil
}

// Summarize asks Gemini for a JSON object with title and description.
func (g *Google) Summarize(ctx context.Context, content, language string) (Summary, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		MaxOutputTokens:   g.maxTokens,
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       {Type: genai.TypeString},
				"description": {Type: genai.TypeString},
			},
			Required: []string{"title", "description"},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(content, language)), config)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if resp == nil {
		return Summary{}, ErrEmptySummary
	}

	return parseSummary(resp.Text())
}
