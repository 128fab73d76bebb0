package summarizer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIGPT4oMini is the default OpenAI chat model.
const OpenAIGPT4oMini = "gpt-4o-mini"

// OpenAI implements Summarizer using OpenAI chat completions in JSON mode.
type OpenAI struct {
	client      openai.Client
	reqOpts     []option.RequestOption
	model       string
	temperature float64
	maxTokens   int64
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAITemperature sets the sampling temperature.
func WithOpenAITemperature(t float64) OpenAIOption {
	return func(o *OpenAI) {
		o.temperature = t
	}
}

// WithOpenAIMaxTokens limits the size of the generated answer.
func WithOpenAIMaxTokens(n int64) OpenAIOption {
	return func(o *OpenAI) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithOpenAIRequestOptions appends raw client options (base URL, retries, HTTP client).
func WithOpenAIRequestOptions(opts ...option.RequestOption) OpenAIOption {
	return func(o *OpenAI) {
		o.reqOpts = append(o.reqOpts, opts...)
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if client != nil {
			o.reqOpts = append(o.reqOpts, option.WithHTTPClient(client))
		}
	}
}

// NewOpenAI creates an OpenAI summarizer.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	o := &OpenAI{
		reqOpts:     []option.RequestOption{option.WithAPIKey(apiKey)},
		model:       OpenAIGPT4oMini,
		temperature: 0.2,
		maxTokens:   150,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.client = openai.NewClient(o.reqOpts...)

	return o, nil
}

// Summarize requests a JSON object with title and description.
func (o *OpenAI) Summarize(ctx context.Context, content, language string) (Summary, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(content, language)),
		},
		Temperature:         openai.Float(o.temperature),
		MaxCompletionTokens: openai.Int(o.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return Summary{}, ErrEmptySummary
	}

	return parseSummary(resp.Choices[0].Message.Content)
}
