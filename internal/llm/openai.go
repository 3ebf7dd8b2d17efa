package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// chatMessage is one message in a chat-completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAICompleter calls the OpenAI chat completions endpoint.
type OpenAICompleter struct {
	apiKey     string
	model      string
	httpClient *http.Client

	// BaseURL overrides the default API endpoint when non-empty.
	BaseURL string
}

// NewOpenAICompleter creates a completer for the given OpenAI model.
func NewOpenAICompleter(apiKey, model string) *OpenAICompleter {
	return &OpenAICompleter{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Complete sends a two-message chat (system + user) and returns the first
// choice's content.
func (c *OpenAICompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	url := c.BaseURL
	if url == "" {
		url = "https://api.openai.com/v1/chat/completions"
	}
	return doChatCompletion(ctx, c.httpClient, url, c.apiKey, c.model, systemPrompt, prompt)
}

// doChatCompletion is shared by every chat-completions-compatible backend.
func doChatCompletion(ctx context.Context, client *http.Client, url, apiKey, model, systemPrompt, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   400,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %s", string(respBody))
	}
	return parsed.Choices[0].Message.Content, nil
}
