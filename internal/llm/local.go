package llm

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// LocalCompleter talks to a locally hosted chat-completions-compatible
// server (llama.cpp, vLLM, TGI with the OpenAI adapter). No credentials.
type LocalCompleter struct {
	baseURL    string
	httpClient *http.Client
}

// NewLocalCompleter creates a client for a local inference server.
func NewLocalCompleter(baseURL string) *LocalCompleter {
	return &LocalCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Complete sends a chat completion to the local server.
func (c *LocalCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return doChatCompletion(ctx, c.httpClient, c.baseURL+"/v1/chat/completions", "", "local", systemPrompt, prompt)
}
