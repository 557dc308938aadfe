package scriptdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client is a typed client for the ScriptDesk HTTP API. It is safe for
// concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new client
func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid BaseURL %q", config.BaseURL)
	}

	hc := config.HTTPClient
	if hc == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		http:    hc,
	}, nil
}

// Health reports service health. It does not require an API key.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListScripts returns the owner's scripts, optionally limited to one category.
func (c *Client) ListScripts(ctx context.Context, owner Owner, category Category) ([]Script, error) {
	q := ownerQuery(owner)
	if category != "" {
		q.Set("category", string(category))
	}
	var out []Script
	if err := c.do(ctx, http.MethodGet, "/api/scripts", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateScript stores a new script.
func (c *Client) CreateScript(ctx context.Context, params CreateScriptParams) (*Script, error) {
	body := map[string]any{
		"teamId":     params.Owner.TeamID,
		"memberId":   params.Owner.MemberID,
		"name":       params.Name,
		"content":    params.Content,
		"category":   params.Category,
		"isPrimary":  params.IsPrimary,
		"isSelected": params.IsSelected,
	}
	var out Script
	if err := c.do(ctx, http.MethodPost, "/api/scripts", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateScript applies a partial update and returns the stored script.
func (c *Client) UpdateScript(ctx context.Context, params UpdateScriptParams) (*Script, error) {
	body := map[string]any{
		"id":       params.ID,
		"teamId":   params.Owner.TeamID,
		"memberId": params.Owner.MemberID,
	}
	if params.Name != nil {
		body["name"] = *params.Name
	}
	if params.Content != nil {
		body["content"] = *params.Content
	}
	if params.Category != nil {
		body["category"] = *params.Category
	}
	if params.IsSelected != nil {
		body["isSelected"] = *params.IsSelected
	}
	if params.IsPrimary != nil {
		body["isPrimary"] = *params.IsPrimary
	}

	var out Script
	if err := c.do(ctx, http.MethodPut, "/api/scripts", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteScript removes a script. Deleting another owner's script reports
// ErrNotFound.
func (c *Client) DeleteScript(ctx context.Context, id string, owner Owner) error {
	q := ownerQuery(owner)
	q.Set("id", id)
	var out struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/scripts", q, nil, &out); err != nil {
		return err
	}
	if !out.Success {
		return errors.New("scriptdesk: delete not acknowledged")
	}
	return nil
}

// ConvertDocument uploads a document and returns its script content.
// contentType may be empty, in which case the server infers it from filename.
func (c *Client) ConvertDocument(ctx context.Context, filename, contentType string, r io.Reader) (*Converted, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/scripts/convert", nil, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Converted
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Templates returns the starter scripts for category, or all of them when
// category is empty.
func (c *Client) Templates(ctx context.Context, category Category) ([]Template, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", string(category))
	}
	var out struct {
		Templates []Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/templates", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// GetPerformanceGoals returns the team's goals, or the defaults when the team
// has never saved any.
func (c *Client) GetPerformanceGoals(ctx context.Context, teamID string) (*PerformanceGoal, error) {
	q := url.Values{"teamId": {teamID}}
	var out PerformanceGoal
	if err := c.do(ctx, http.MethodGet, "/api/performance-goals", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPerformanceGoals replaces the owner's goals.
func (c *Client) SetPerformanceGoals(ctx context.Context, params SetGoalsParams) (*PerformanceGoal, error) {
	body := map[string]any{
		"teamId":                   params.Owner.TeamID,
		"memberId":                 params.Owner.MemberID,
		"overall_performance_goal": params.OverallPerformanceGoal,
		"number_of_calls_average":  params.NumberOfCallsAverage,
		"call_length":              params.CallLength,
	}
	if params.CallExtendAllowed != nil {
		body["call_extend_allowed"] = *params.CallExtendAllowed
	}

	var out PerformanceGoal
	if err := c.do(ctx, http.MethodPost, "/api/performance-goals", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CallLength returns the owner's target call length in minutes.
func (c *Client) CallLength(ctx context.Context, owner Owner) (int, error) {
	var out struct {
		CallLength int `json:"call_length"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/performance-goals/duration", ownerQuery(owner), nil, &out); err != nil {
		return 0, err
	}
	return out.CallLength, nil
}

// CallExtendAllowed reports whether the team's calls may run past the target length.
func (c *Client) CallExtendAllowed(ctx context.Context, teamID string) (bool, error) {
	q := url.Values{"teamId": {teamID}}
	var out struct {
		CallExtendAllowed bool `json:"call_extend_allowed"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/call-extend-status", q, nil, &out); err != nil {
		return false, err
	}
	return out.CallExtendAllowed, nil
}

func ownerQuery(o Owner) url.Values {
	q := url.Values{}
	if o.TeamID != "" {
		q.Set("teamId", o.TeamID)
	}
	if o.MemberID != "" {
		q.Set("memberId", o.MemberID)
	}
	return q
}

// do sends a JSON request (when body is non-nil) and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 && json.Unmarshal(data, apiErr) != nil {
		apiErr.Detail = strings.TrimSpace(string(data))
	}
	// The problem body carries its own status; the transport's wins.
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
