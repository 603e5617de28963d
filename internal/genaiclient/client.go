// Package genaiclient is a thin HTTP client for the Generative Language
// API. It knows nothing about the game; callers shape prompts and
// decode results.
package genaiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yami-inc/ai-death-game/internal/constants"
)

// Caller issues one generation request against one model. Implemented
// by Client; swapped for a stub in tests.
type Caller interface {
	Generate(ctx context.Context, apiKey, model string, req Request) (string, error)
}

// Request is one generateContent call. When JSONOutput is set the
// service is asked for a JSON response body.
type Request struct {
	System     string
	Prompt     string
	JSONOutput bool
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    constants.GenaiBaseURL,
	}
}

// NewWithBaseURL is used by tests to point the client at a local server.
func NewWithBaseURL(base string) *Client {
	c := New()
	c.baseURL = base
	return c
}

type generatePayload struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

// Generate performs one generateContent call and returns the first
// candidate's text. The API key is passed per call and only ever placed
// in the query string of this one request; it is never logged.
func (c *Client) Generate(ctx context.Context, apiKey, model string, req Request) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("genai: api key is empty")
	}

	payload := generatePayload{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.JSONOutput {
		payload.GenerationConfig.ResponseMIMEType = constants.ContentTypeJSON
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + fmt.Sprintf(constants.GenaiGenerateContentPath, url.PathEscape(model)) +
		"?" + constants.GenaiKeyQueryParam + "=" + url.QueryEscape(apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("genai: model %s returned %d: %s", model, resp.StatusCode, string(body))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("genai: failed to decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("genai: response contained no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
