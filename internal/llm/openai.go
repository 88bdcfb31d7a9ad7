package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// openaiGenerator implements Generator with the official openai-go SDK,
// using JSON-schema response enforcement for structured requests.
type openaiGenerator struct {
	model       string
	maxTokens   int
	temperature float64
	opts        []option.RequestOption
}

// NewOpenAIGenerator builds the backend. maxTokens and temperature are the
// configured defaults applied to requests that do not set their own.
func NewOpenAIGenerator(apiKey, baseURL, model string, maxTokens int, temperature float64) (Generator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key missing")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiGenerator{
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		opts:        opts,
	}, nil
}

func (g *openaiGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	client := openai.NewClient(g.opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    g.model,
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.temperature
	}
	if temperature != 0 {
		params.Temperature = openai.Float(temperature)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	if req.Schema != nil {
		name := req.SchemaName
		if name == "" {
			name = "structured_response"
		}
		schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:        name,
			Description: openai.String("Structured data response"),
			Schema:      req.Schema,
			Strict:      openai.Bool(true),
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		}
	}

	start := time.Now()
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("openai request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Response{}, fmt.Errorf("openai returned no choices")
	}

	return Response{
		Text:             completion.Choices[0].Message.Content,
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
		Latency:          time.Since(start),
	}, nil
}
