// Package notionapi is a minimal client for the parts of Notion's REST API
// this service consumes: database search and database schema retrieval on
// behalf of a linked workspace.
package notionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// NotionVersion is the API version header value sent with every request.
const NotionVersion = "2022-06-28"

const searchPageSize = 10

// Client talks to the Notion API with one workspace's access token.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// Database is the trimmed database representation handed to callers.
type Database struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	CreatedTime    string `json:"created_time"`
	LastEditedTime string `json:"last_edited_time"`
}

// DatabaseSchema is a database plus its annotated properties.
type DatabaseSchema struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Properties []AnnotatedProperty `json:"properties"`
}

func NewClient(baseURL, accessToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, accessToken: accessToken, httpClient: httpClient}
}

type richText struct {
	PlainText string `json:"plain_text"`
}

func plainTitle(parts []richText) string {
	if len(parts) == 0 || parts[0].PlainText == "" {
		return "Untitled Database"
	}
	return parts[0].PlainText
}

type searchResult struct {
	ID             string     `json:"id"`
	Title          []richText `json:"title"`
	CreatedTime    string     `json:"created_time"`
	LastEditedTime string     `json:"last_edited_time"`
}

// ListDatabases returns every database the integration can see.
func (c *Client) ListDatabases(ctx context.Context) ([]Database, error) {
	return c.search(ctx, "", 0)
}

// SearchDatabases returns databases matching query, capped for latency.
func (c *Client) SearchDatabases(ctx context.Context, query string) ([]Database, error) {
	return c.search(ctx, query, searchPageSize)
}

func (c *Client) search(ctx context.Context, query string, pageSize int) ([]Database, error) {
	payload := map[string]interface{}{
		"filter": map[string]string{"property": "object", "value": "database"},
	}
	if query != "" {
		payload["query"] = query
	}
	if pageSize > 0 {
		payload["page_size"] = pageSize
	}

	var body struct {
		Results []searchResult `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/search", payload, &body); err != nil {
		return nil, err
	}

	databases := make([]Database, 0, len(body.Results))
	for _, r := range body.Results {
		databases = append(databases, Database{
			ID:             r.ID,
			Title:          plainTitle(r.Title),
			CreatedTime:    r.CreatedTime,
			LastEditedTime: r.LastEditedTime,
		})
	}
	return databases, nil
}

// RetrieveDatabaseSchema fetches one database and annotates its properties
// with display metadata.
func (c *Client) RetrieveDatabaseSchema(ctx context.Context, databaseID string) (*DatabaseSchema, error) {
	var body struct {
		ID         string              `json:"id"`
		Title      []richText          `json:"title"`
		Properties map[string]Property `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+databaseID, nil, &body); err != nil {
		return nil, err
	}

	schema := &DatabaseSchema{
		ID:    body.ID,
		Title: plainTitle(body.Title),
	}
	for name, prop := range body.Properties {
		schema.Properties = append(schema.Properties, AnnotateProperty(name, prop))
	}
	return schema, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Notion-Version", NotionVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notion api request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("notion api response unreadable: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message != "" {
			return fmt.Errorf("notion api error (%d %s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("notion api error: status %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
