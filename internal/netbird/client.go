package netbird

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to the NetBird management API over HTTPS with a bearer
// token. It performs no retries; failed calls surface immediately as a
// typed error.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

func NewClient(baseURL, token string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.S()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Peers fetches all peers of the account.
func (c *Client) Peers(ctx context.Context) ([]Peer, error) {
	var peers []Peer
	if err := c.do(ctx, http.MethodGet, "/api/peers", nil, &peers); err != nil {
		return nil, err
	}
	c.log.Debugw("fetched peers", "count", len(peers))
	return peers, nil
}

// Routes fetches all routes of the account.
func (c *Client) Routes(ctx context.Context) ([]Route, error) {
	var routes []Route
	if err := c.do(ctx, http.MethodGet, "/api/routes", nil, &routes); err != nil {
		return nil, err
	}
	c.log.Debugw("fetched routes", "count", len(routes))
	return routes, nil
}

// Groups fetches all groups of the account.
func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	if err := c.do(ctx, http.MethodGet, "/api/groups", nil, &groups); err != nil {
		return nil, err
	}
	c.log.Debugw("fetched groups", "count", len(groups))
	return groups, nil
}

// CreateGroup creates a new group.
func (c *Client) CreateGroup(ctx context.Context, req GroupRequest) (Group, error) {
	var group Group
	if err := c.do(ctx, http.MethodPost, "/api/groups", req, &group); err != nil {
		return Group{}, err
	}
	c.log.Infow("created group", "id", group.ID, "name", group.Name, "peers", len(req.Peers))
	return group, nil
}

// UpdateGroup replaces the name and membership of an existing group.
func (c *Client) UpdateGroup(ctx context.Context, id string, req GroupRequest) (Group, error) {
	var group Group
	if err := c.do(ctx, http.MethodPut, "/api/groups/"+id, req, &group); err != nil {
		return Group{}, err
	}
	c.log.Infow("updated group", "id", id, "peers", len(req.Peers))
	return group, nil
}

// UpdateRoute replaces an existing route with the given full body.
func (c *Client) UpdateRoute(ctx context.Context, id string, req RouteRequest) (Route, error) {
	var route Route
	if err := c.do(ctx, http.MethodPut, "/api/routes/"+id, req, &route); err != nil {
		return Route{}, err
	}
	c.log.Infow("updated route", "id", id, "groups", len(req.Groups))
	return route, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debugw("making API request", "method", method, "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %v", ErrConnection, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("undecodable body: %v", err)}
		}
		return nil

	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrAuthentication, resp.StatusCode)

	default:
		c.log.Errorw("unexpected API response", "method", method, "url", url,
			"status", resp.StatusCode, "body", string(raw))
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
}
