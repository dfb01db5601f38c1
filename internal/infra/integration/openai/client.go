package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/stayfront/outreach/internal/usecase"
)

const systemPrompt = "You write concise B2B outreach emails. " +
	`Always respond with a JSON object containing exactly two string fields: "subject" and "body".`

// Client calls a chat-completions style API to draft one email. The engine
// treats the prose as opaque; only subject/body presence matters.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewClient(apiKey, baseURL, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		// No client timeout: the retry harness supplies the per-attempt
		// deadline through the request context.
		http: &http.Client{},
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (*usecase.GeneratedContent, error) {
	url := fmt.Sprintf("%s/chat/completions", c.baseURL)

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.7,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &usecase.PermanentError{Code: "MARSHAL", Message: "failed to marshal generation request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// Connection-level failures bubble up as-is; the retry predicate
		// recognizes net errors directly.
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &usecase.TransientError{
			Code:    "GENERATOR_UNAVAILABLE",
			Message: fmt.Sprintf("generator returned status %d: %s", resp.StatusCode, truncate(body, 200)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &usecase.PermanentError{
			Code:    "GENERATOR_REJECTED",
			Message: fmt.Sprintf("generator returned status %d: %s", resp.StatusCode, truncate(body, 200)),
		}
	}

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, &usecase.PermanentError{Code: "MALFORMED_RESPONSE", Message: "generator response is not valid JSON", Err: err}
	}
	if len(response.Choices) == 0 {
		return nil, &usecase.PermanentError{Code: "MALFORMED_RESPONSE", Message: "generator returned no choices"}
	}

	var content usecase.GeneratedContent
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &content); err != nil {
		return nil, &usecase.PermanentError{Code: "MALFORMED_CONTENT", Message: "generator output is not subject/body JSON", Err: err}
	}

	return &content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
