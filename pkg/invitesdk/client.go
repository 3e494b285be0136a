package invitesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the invitation service on behalf of one access token.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Token is the caller's Supabase access token.
	Token string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		Token: token,
	}
}

// Issue creates an invitation and has the invite email sent.
func (c *Client) Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error) {
	var out IssueResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invitations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of invitations.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Email != "" {
		q.Set("email", opts.Email)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Before != "" {
		q.Set("before", opts.Before)
	}

	path := "/v1/invitations"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Invitation, error) {
	var out InvitationResponse
	if err := c.do(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Invitation, nil
}

// Resend sends the invite email again. An expired invitation comes back as
// a new pending one with a different id.
func (c *Client) Resend(ctx context.Context, id string) (*IssueResponse, error) {
	var out IssueResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(id)+"/resend", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls the liveness probe. It needs no token.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/livez", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls the readiness probe. A 503 comes back as an *APIError.
func (c *Client) Ready(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseErrorResponse(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
