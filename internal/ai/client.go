package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chatgrid/chat-service/pkg/errs"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Turn — одна реплика транскрипта, уходящего провайдеру completions.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer превращает транскрипт в ответ ассистента.
type Completer interface {
	Complete(ctx context.Context, transcript []Turn) (string, error)
}

type Options struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
}

func New(opts Options) (Completer, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("ai client: empty base url")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("ai client: empty model")
	}
	if opts.Timeout <= 0 {
		// completions отвечают медленно; таймаут щадящий
		opts.Timeout = 60 * time.Second
	}

	return &client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   opts.Model,
		apiKey:  opts.APIKey,
	}, nil
}

type completionRequest struct {
	Model    string `json:"model"`
	Messages []Turn `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) Complete(ctx context.Context, transcript []Turn) (string, error) {
	body, err := json.Marshal(completionRequest{Model: c.model, Messages: transcript})
	if err != nil {
		return "", fmt.Errorf("ai client: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ai client: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: completion status %d", errs.ErrUpstream, res.StatusCode)
	}

	var out completionResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode completion: %v", errs.ErrUpstream, err)
	}
	// пустой список choices — не ошибка, ответ по умолчанию пустой
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
