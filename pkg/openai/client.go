package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pravnaai/pravnaai-backend/pkg/config"
	"github.com/pravnaai/pravnaai-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("openai api key is required")

// Message is a single chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a minimal chat-completions client speaking the OpenAI wire format.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
}

// NewClient builds a chat client from configuration.
func NewClient(cfg config.OpenAIConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if logg != nil {
		logg.Info(context.Background(), fmt.Sprintf("openai client initialized (model %s)", cfg.Model))
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
	}, nil
}

// Model reports the configured completion model.
func (c *Client) Model() string {
	return c.model
}

// StreamChat runs a streaming chat completion, invoking onDelta for every
// content fragment as it arrives. It returns the accumulated reply. A non-nil
// error from onDelta aborts the stream but still returns the content produced
// so far, so callers can persist partial output after a client disconnect.
func (c *Client) StreamChat(ctx context.Context, messages []Message, onDelta func(delta string) error) (string, error) {
	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"stream":      true,
		"max_tokens":  c.maxTokens,
		"temperature": 0.7,
	}

	respBody, err := c.doRequest(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	defer respBody.Close()

	var full strings.Builder
	parser := newSSEParser(respBody)
	for {
		event, err := parser.Next()
		if err != nil {
			if err == io.EOF {
				return full.String(), nil
			}
			return full.String(), fmt.Errorf("read stream: %w", err)
		}
		if event.Data == "[DONE]" {
			return full.String(), nil
		}

		delta, err := parseChunkDelta(event.Data)
		if err != nil {
			continue
		}
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return full.String(), err
			}
		}
	}
}

func (c *Client) doRequest(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openai responded %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp.Body, nil
}

func parseChunkDelta(data string) (string, error) {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return "", err
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}
