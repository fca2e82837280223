package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ensemblecv/cv-judge/internal/judge"
	"github.com/ensemblecv/cv-judge/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = float32(0.3)
	defaultMaxLogLen   = 200
)

// modelCaller is the slice of the genai client the adapter needs; tests
// substitute a fake.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client is the Gemini adapter behind the judge client contract.
type Client struct {
	models    modelCaller
	model     string
	logger    *zap.Logger
	maxLogLen int
}

// New creates a Gemini client configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		models:    client.Models,
		model:     model,
		logger:    log,
		maxLogLen: defaultMaxLogLen,
	}, nil
}

// Call sends the evaluation prompt to Gemini and returns the unvalidated
// payload. genai API errors map onto the provider error taxonomy: 429 and 5xx
// are transient, other API errors fatal.
func (c *Client) Call(ctx context.Context, req *judge.Request, repair string) (*judge.RawPayload, error) {
	prompt := judge.BuildPrompt(req, repair)

	temperature := defaultTemperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	c.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", len(prompt)),
		zap.Bool("repair", repair != ""),
	)

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	text := collectText(resp)
	if text == "" {
		return nil, judge.MalformedError(errors.New("gemini api returned empty response"))
	}

	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", len(text)),
		zap.String("response_preview", utils.TruncateForLog(text, c.maxLogLen)),
	)

	return judge.ParsePayload(text)
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("gemini api: %w", err)
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return judge.TransientError(wrapped)
		}
		return judge.FatalError(wrapped)
	}

	return judge.TransientError(fmt.Errorf("gemini request: %w", err))
}
