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

// HFCompleter calls the Hugging Face Inference API text-generation
// endpoint for a fixed model.
type HFCompleter struct {
	apiKey     string
	model      string
	httpClient *http.Client

	// BaseURL overrides the default inference endpoint when non-empty.
	BaseURL string
}

// NewHFCompleter creates a completer bound to one HF model.
func NewHFCompleter(apiKey, model string) *HFCompleter {
	return &HFCompleter{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // generous timeout for generation
		},
	}
}

type hfGenerateRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MaxNewTokens int     `json:"max_new_tokens"`
		Temperature  float64 `json:"temperature"`
	} `json:"parameters"`
}

type hfGenerateResponse []struct {
	GeneratedText string `json:"generated_text"`
}

// Complete sends the prompt to the model. The system instruction is
// prepended since the raw generation endpoint has no message roles.
func (c *HFCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	url := c.BaseURL
	if url == "" {
		url = fmt.Sprintf("https://api-inference.huggingface.co/models/%s", c.model)
	}

	input := prompt
	if systemPrompt != "" {
		input = systemPrompt + "\n\n" + prompt
	}

	reqBody := hfGenerateRequest{Inputs: input}
	reqBody.Parameters.MaxNewTokens = 400
	reqBody.Parameters.Temperature = 0.2

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HF generation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read HF generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HF generation error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed hfGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || len(parsed) == 0 {
		return "", fmt.Errorf("unexpected HF generation response: %s", string(respBody))
	}
	return parsed[0].GeneratedText, nil
}
