package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"chatgate/internal/domain"
)

const (
	assistantsPath = "/v1/assistants/"
	responsesPath  = "/v1/responses"

	maxErrorBody = 64 * 1024
)

// Client talks to an OpenAI-compatible API on behalf of one assistant.
type Client struct {
	BaseURL     string
	APIKey      string
	AssistantID string
	// Model overrides the assistant's own model when non-empty.
	Model string
	HTTP  *http.Client

	fetch   singleflight.Group
	mu      sync.Mutex
	profile *domain.AssistantProfile
}

// NewClient returns a Client. A nil httpClient means http.DefaultClient.
func NewClient(baseURL, apiKey, assistantID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		AssistantID: assistantID,
		HTTP:        httpClient,
	}
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Type != "" {
		return fmt.Sprintf("assistant api: %d %s: %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("assistant api: %d: %s", e.StatusCode, e.Message)
}

type assistantObject struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Instructions string `json:"instructions"`
	Tools        []struct {
		Type string `json:"type"`
	} `json:"tools"`
	ToolResources struct {
		FileSearch *struct {
			VectorStoreIDs []string `json:"vector_store_ids"`
		} `json:"file_search"`
	} `json:"tool_resources"`
}

// Profile returns the assistant's configuration, fetching it on first use.
// Concurrent callers share one fetch; a caller whose ctx ends stops waiting
// without cancelling the fetch for the others. Failures are not cached.
func (c *Client) Profile(ctx context.Context) (domain.AssistantProfile, error) {
	if p, ok := c.cachedProfile(); ok {
		return p, nil
	}

	ch := c.fetch.DoChan(c.AssistantID, func() (any, error) {
		if p, ok := c.cachedProfile(); ok {
			return p, nil
		}
		var obj assistantObject
		if err := c.getJSON(context.WithoutCancel(ctx), assistantsPath+url.PathEscape(c.AssistantID), &obj); err != nil {
			return nil, err
		}
		p := profileFrom(obj)
		c.mu.Lock()
		c.profile = &p
		c.mu.Unlock()
		return p, nil
	})

	select {
	case <-ctx.Done():
		return domain.AssistantProfile{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.AssistantProfile{}, res.Err
		}
		return res.Val.(domain.AssistantProfile), nil
	}
}

func (c *Client) cachedProfile() (domain.AssistantProfile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return domain.AssistantProfile{}, false
	}
	return *c.profile, true
}

// ToolConfig returns the tools to enable for a turn, or nil for none.
func (c *Client) ToolConfig(ctx context.Context) (*domain.ToolConfig, error) {
	p, err := c.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if !p.Tools.FileSearch() {
		return nil, nil
	}
	return &domain.ToolConfig{VectorStoreIDs: append([]string(nil), p.Tools.VectorStoreIDs...)}, nil
}

// profileFrom derives a profile from the API object. File search is only
// enabled when the assistant has the tool and at least one store.
func profileFrom(obj assistantObject) domain.AssistantProfile {
	p := domain.AssistantProfile{ID: obj.ID, Model: obj.Model, Instructions: obj.Instructions}

	hasFileSearch := false
	for _, t := range obj.Tools {
		if t.Type == "file_search" {
			hasFileSearch = true
			break
		}
	}
	if hasFileSearch && obj.ToolResources.FileSearch != nil {
		p.Tools.VectorStoreIDs = append([]string(nil), obj.ToolResources.FileSearch.VectorStoreIDs...)
	}
	return p
}

type responseTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

type responseRequest struct {
	Model              string         `json:"model"`
	Instructions       string         `json:"instructions,omitempty"`
	Input              string         `json:"input"`
	PreviousResponseID string         `json:"previous_response_id,omitempty"`
	Tools              []responseTool `json:"tools,omitempty"`
	Stream             bool           `json:"stream"`
}

// StreamTurn starts a streamed reply to req.
func (c *Client) StreamTurn(ctx context.Context, req domain.TurnRequest) (domain.TurnStream, error) {
	p, err := c.Profile(ctx)
	if err != nil {
		return nil, err
	}

	body := responseRequest{
		Model:              p.Model,
		Instructions:       p.Instructions,
		Input:              req.Prompt,
		PreviousResponseID: string(req.PriorHandle),
		Stream:             true,
	}
	if c.Model != "" {
		body.Model = c.Model
	}
	if req.Tools.FileSearch() {
		body.Tools = []responseTool{{Type: "file_search", VectorStoreIDs: req.Tools.VectorStoreIDs}}
	}

	resp, err := c.do(ctx, http.MethodPost, responsesPath, body, "text/event-stream")
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// do sends a request and returns the response when the status is 2xx. The
// caller owns the body.
func (c *Client) do(ctx context.Context, method, path string, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(in); err != nil {
			return nil, err
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assistant %s %s: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if json.Unmarshal(b, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Type = payload.Error.Type
		if payload.Error.Code != nil {
			apiErr.Code = fmt.Sprint(payload.Error.Code)
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

var (
	_ domain.Backend      = (*Client)(nil)
	_ domain.ToolResolver = (*Client)(nil)
)
