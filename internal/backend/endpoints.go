package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/casefold-ai/lexgate/internal/domain"
)

// Bot is an agent configuration as the backend reports it.
type Bot struct {
	ID           string          `json:"id"`
	Name         string          `json:"name,omitempty"`
	SystemPrompt string          `json:"system_prompt,omitempty"`
	Model        string          `json:"model,omitempty"`
	Search       bool            `json:"search,omitempty"`
	Tools        json.RawMessage `json:"tools,omitempty"`
}

type viewBotResponse struct {
	Message string `json:"message"`
	Data    *Bot   `json:"data"`
}

type viewBotsResponse struct {
	Message string `json:"message"`
	Data    []Bot  `json:"data"`
}

// ViewBot fetches one agent configuration.
func (c *Client) ViewBot(ctx context.Context, bearerToken, botID string) (*Bot, error) {
	var resp viewBotResponse
	err := c.do(ctx, requestOptions{
		method:      http.MethodGet,
		path:        "view_bot",
		bearerToken: bearerToken,
		query:       url.Values{"bot_id": {botID}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Data, nil
}

// ViewBots lists the caller's agents.
func (c *Client) ViewBots(ctx context.Context, bearerToken string) ([]Bot, error) {
	var resp viewBotsResponse
	err := c.do(ctx, requestOptions{
		method:      http.MethodGet,
		path:        "view_bots",
		bearerToken: bearerToken,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Data, nil
}

// CreateBot creates an agent and returns its identifier.
func (c *Client) CreateBot(ctx context.Context, bearerToken string, config map[string]interface{}) (string, error) {
	var resp struct {
		Message string `json:"message"`
		BotID   string `json:"bot_id"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "create_bot",
		bearerToken: bearerToken,
		body:        config,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.BotID == "" {
		return "", domain.ErrMalformedPayload
	}
	return resp.BotID, nil
}

// DeleteBot removes an agent.
func (c *Client) DeleteBot(ctx context.Context, bearerToken, botID string) error {
	return c.do(ctx, requestOptions{
		method:      http.MethodDelete,
		path:        "delete_bot/" + url.PathEscape(botID),
		bearerToken: bearerToken,
	}, nil)
}

// InitializeSession starts a chat session for a bot and returns the
// session identifier.
func (c *Client) InitializeSession(ctx context.Context, bearerToken, botID string) (string, error) {
	var resp struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "initialize_session",
		bearerToken: bearerToken,
		body:        map[string]string{"bot_id": botID},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", domain.ErrMalformedPayload
	}
	return resp.SessionID, nil
}

// FetchSession fetches a session's stored state.
func (c *Client) FetchSession(ctx context.Context, bearerToken, sessionID string) (json.RawMessage, error) {
	var resp struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "fetch_session",
		bearerToken: bearerToken,
		body:        map[string]string{"session_id": sessionID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Data, nil
}

// HistoryMessage is one turn of a session's formatted history.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FetchFormattedHistory fetches a session's chat history, formatted for
// display.
func (c *Client) FetchFormattedHistory(ctx context.Context, bearerToken, sessionID string) ([]HistoryMessage, error) {
	var resp struct {
		Message string           `json:"message"`
		History []HistoryMessage `json:"history"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "fetch_session_formatted_history",
		bearerToken: bearerToken,
		body:        map[string]string{"session_id": sessionID},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.History == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.History, nil
}

// SessionFeedback records user feedback on a session response.
func (c *Client) SessionFeedback(ctx context.Context, bearerToken string, payload map[string]interface{}) error {
	return c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "session_feedback",
		bearerToken: bearerToken,
		body:        payload,
	}, nil)
}

// SearchRequest is a collection search or browse call.
type SearchRequest struct {
	Collection string `json:"collection"`
	Query      string `json:"query,omitempty"`
	Keyword    string `json:"keyword,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type searchResponse struct {
	Message string             `json:"message"`
	Results []domain.RawResult `json:"results"`
}

// SearchCollection runs an embeddings search and returns the raw hits in
// backend order.
func (c *Client) SearchCollection(ctx context.Context, bearerToken string, req SearchRequest) ([]domain.RawResult, error) {
	var resp searchResponse
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "search_collection",
		bearerToken: bearerToken,
		body:        req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Results, nil
}

// BrowseCollection pages through a collection without a query.
func (c *Client) BrowseCollection(ctx context.Context, bearerToken string, req SearchRequest) ([]domain.RawResult, error) {
	var resp searchResponse
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "browse_collection",
		bearerToken: bearerToken,
		body:        req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Results, nil
}

// Summary fetches the AI summary of a collection resource.
func (c *Client) Summary(ctx context.Context, bearerToken, resourceID string) (string, error) {
	var resp struct {
		Message string `json:"message"`
		Summary string `json:"summary"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodGet,
		path:        "summary",
		bearerToken: bearerToken,
		query:       url.Values{"resource_id": {resourceID}},
		timeout:     summaryTimeout,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// ResourceCount returns the number of stored chunks for a resource.
func (c *Client) ResourceCount(ctx context.Context, bearerToken, name string) (int, error) {
	var resp struct {
		Message string `json:"message"`
		Count   *int   `json:"resource_count"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodGet,
		path:        "resource_count/" + url.PathEscape(name),
		bearerToken: bearerToken,
		timeout:     resourceCountTimeout,
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.Count == nil {
		return 0, domain.ErrMalformedPayload
	}
	return *resp.Count, nil
}

// Status checks backend liveness.
func (c *Client) Status(ctx context.Context) error {
	return c.do(ctx, requestOptions{
		method:  http.MethodGet,
		path:    "status",
		timeout: statusTimeout,
	}, nil)
}

// DatasetExample is one labeled example of an evaluation dataset.
type DatasetExample struct {
	ID       string `json:"id"`
	Input    string `json:"input"`
	Expected string `json:"expected,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Dataset is an evaluation dataset with its examples.
type Dataset struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Examples []DatasetExample `json:"examples"`
}

// CreateDataset creates an evaluation dataset and returns its identifier.
func (c *Client) CreateDataset(ctx context.Context, bearerToken string, name string, examples []DatasetExample) (string, error) {
	var resp struct {
		Message   string `json:"message"`
		DatasetID string `json:"dataset_id"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "create_dataset",
		bearerToken: bearerToken,
		body: map[string]interface{}{
			"name":     name,
			"examples": examples,
		},
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.DatasetID == "" {
		return "", domain.ErrMalformedPayload
	}
	return resp.DatasetID, nil
}

// FetchDataset fetches an evaluation dataset.
func (c *Client) FetchDataset(ctx context.Context, bearerToken, datasetID string) (*Dataset, error) {
	var resp struct {
		Message string   `json:"message"`
		Dataset *Dataset `json:"dataset"`
	}
	err := c.do(ctx, requestOptions{
		method:      http.MethodGet,
		path:        "fetch_dataset",
		bearerToken: bearerToken,
		query:       url.Values{"dataset_id": {datasetID}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Dataset == nil {
		return nil, domain.ErrMalformedPayload
	}
	return resp.Dataset, nil
}

// LabelDatasetExample records a label for a dataset example.
func (c *Client) LabelDatasetExample(ctx context.Context, bearerToken, datasetID, exampleID, label string) error {
	return c.do(ctx, requestOptions{
		method:      http.MethodPost,
		path:        "label_dataset_example",
		bearerToken: bearerToken,
		body: map[string]string{
			"dataset_id": datasetID,
			"example_id": exampleID,
			"label":      label,
		},
	}, nil)
}
