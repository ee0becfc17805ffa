package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiConfig configures the generateContent endpoint.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	cfg GeminiConfig
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	return &GeminiClient{cfg: cfg}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// GenerateText sends prompt as a single user turn and returns the first
// non-empty text part of the first candidate.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(g.cfg.APIKey) == "" {
		return "", fmt.Errorf("gemini api key is required")
	}
	if strings.TrimSpace(g.cfg.Model) == "" {
		return "", fmt.Errorf("gemini model is required")
	}

	requestBody, err := json.Marshal(map[string]any{
		"contents": []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	res, err := g.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("generate request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	for _, cand := range payload.Candidates {
		for _, part := range cand.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("generate response contained no text")
}
