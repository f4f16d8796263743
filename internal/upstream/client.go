// Package upstream handles communication with the LLM backend used for
// formula generation. The backend speaks the OpenAI chat-completions shape
// (Groq by default), treated as an opaque request/response service.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pysugar/notion-nexus/internal/config"
	"github.com/pysugar/notion-nexus/internal/util"
)

const defaultTimeout = 120 * time.Second

// systemPrompt frames the model as a Notion formula generator. Only the
// formula code is expected back.
const systemPrompt = `You are a Notion formula generator.
The user will provide a requirement for a Notion formula and details about the structure of the Notion database. Create a Notion formula for the user's requirement. Only return the formula code, no explanation. Be very precise.
If the user does not provide a database structure or if the database structure is not proper and to your understanding of how a table should look like, leave that part and give only the formula code with sample fields that would be applicable for the formula he has asked for.`

// Client calls the formula-generation backend.
type Client struct {
	cfg        config.LLMConfig
	httpClient *http.Client
}

func NewClient(cfg config.LLMConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateFormula asks the model for a formula satisfying requirements,
// given the (already simplified) database structure as JSON context.
func (c *Client) GenerateFormula(ctx context.Context, requirements string, databaseStructure interface{}) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("llm api key is not configured")
	}
	if requirements == "" {
		requirements = "Create a Notion formula"
	}

	structure, err := json.Marshal(databaseStructure)
	if err != nil {
		return "", fmt.Errorf("encode database structure: %w", err)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("The structure of the database in json format is %s. The requirement is %s.", structure, requirements)},
		},
		Temperature: 1,
		TopP:        1,
	}

	body, _ := json.Marshal(payload)
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm response unreadable: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.Printf("❌ Malformed LLM response: %s", util.TruncateBytes(respBody))
		return "", fmt.Errorf("malformed llm response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("llm error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("llm error: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
