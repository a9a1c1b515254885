// Package openai is the generative adjudicator. It submits the dossier to an
// OpenAI-compatible chat-completions endpoint and parses the model's verdict
// into an audit outcome. Transport, API, and parse failures all surface as
// unavailable so a run can be retried without persisting anything.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docaudit/internal/adjudicator"
	"docaudit/internal/audit/models"
	"docaudit/internal/platform/config"
	dErrors "docaudit/pkg/domain-errors"
)

var _ adjudicator.Adjudicator = (*Client)(nil)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-5-mini"
	defaultTimeout = 60 * time.Second
)

// Client adjudicates dossiers through the chat-completions API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests and by
// deployments that need custom transport settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New constructs the generative adjudicator from configuration.
func New(cfg config.OpenAI, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "openai adjudicator requires an api key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Adjudicate submits the dossier and returns the parsed, validated outcome.
func (c *Client) Adjudicate(ctx context.Context, d *models.Dossier) (*models.AuditOutcome, error) {
	dossierJSON, err := json.Marshal(d)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode dossier")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(dossierJSON)},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "adjudicator request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read adjudicator response")
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to decode adjudicator response")
	}
	if chatResp.Error != nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("adjudicator api error: %s", chatResp.Error.Message))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("adjudicator returned status %d", resp.StatusCode))
	}
	if len(chatResp.Choices) == 0 {
		return nil, dErrors.New(dErrors.CodeUnavailable, "adjudicator returned no choices")
	}

	outcome, err := parseOutcome(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if err := adjudicator.ValidateOutcome(outcome); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "adjudicator verdict received",
		slog.String("model", c.model),
		slog.String("decision", string(outcome.Decision)),
		slog.Int("findings", len(outcome.Findings)),
		slog.Duration("duration", time.Since(start)),
	)
	return outcome, nil
}

// parseOutcome decodes the model's JSON verdict, tolerating a fenced code
// block around the object.
func parseOutcome(content string) (*models.AuditOutcome, error) {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	var outcome models.AuditOutcome
	dec := json.NewDecoder(strings.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&outcome); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "adjudicator verdict is not valid json")
	}
	return &outcome, nil
}
