package openrouter

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

	"github.com/ensemblecv/cv-judge/internal/judge"
	"github.com/ensemblecv/cv-judge/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	contentType    = "application/json"
	userAgent      = "cv-judge (github.com/ensemblecv/cv-judge)"

	defaultTemperature = 0.3
	defaultMaxLogLen   = 200
)

// Client is the OpenRouter adapter behind the judge client contract. One
// Client serves one configured judge: it carries that judge's model.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	logger      *zap.Logger
	maxLogLen   int

	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
}

// New creates an OpenRouter client for the given model.
func New(apiKey, model string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is required")
	}

	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("openrouter model is required")
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: defaultTemperature,
		logger:      log,
		maxLogLen:   defaultMaxLogLen,
		BaseURL:     defaultBaseURL,
		UserAgent:   userAgent,
		HTTPClient: &http.Client{
			// The orchestrator bounds each call via ctx; this is a safety net.
			Timeout: 2 * time.Minute,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Call sends the evaluation prompt to OpenRouter and returns the unvalidated
// payload. HTTP status codes map onto the provider error taxonomy: 429 and
// 5xx are transient, other non-success statuses are fatal, and an unusable
// body is malformed.
func (c *Client) Call(ctx context.Context, req *judge.Request, repair string) (*judge.RawPayload, error) {
	prompt := judge.BuildPrompt(req, repair)

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    c.temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, judge.FatalError(fmt.Errorf("marshal chat request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, judge.FatalError(fmt.Errorf("build chat request: %w", err))
	}

	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("openrouter chat request",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(prompt)),
		zap.Bool("repair", repair != ""),
	)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, judge.TransientError(fmt.Errorf("openrouter request: %w", err))
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode, resp.Status); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, judge.TransientError(fmt.Errorf("reading openrouter response: %w", err))
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, judge.MalformedError(fmt.Errorf("parse openrouter response: %w", err))
	}

	if len(chat.Choices) == 0 {
		return nil, judge.MalformedError(errors.New("openrouter response has no choices"))
	}

	content := chat.Choices[0].Message.Content

	c.logger.Debug("openrouter chat response",
		zap.Int("response_length", len(content)),
		zap.String("response_preview", utils.TruncateForLog(content, c.maxLogLen)),
	)

	return judge.ParsePayload(content)
}

func classifyStatus(code int, status string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return judge.TransientError(fmt.Errorf("bad status: %s", status))
	default:
		return judge.FatalError(fmt.Errorf("bad status: %s", status))
	}
}
