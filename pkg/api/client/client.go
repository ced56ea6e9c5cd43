package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the PeopleMover API for command line tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:8080"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return APIError{Status: resp.StatusCode, Message: extractError(resp.Body)}
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// Token is the access token payload emitted by the API.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login exchanges an access code for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, accessCode string) (Token, error) {
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/api/access_token", map[string]string{"accessCode": accessCode}, &tok); err != nil {
		return Token{}, err
	}
	c.token = tok.AccessToken
	return tok, nil
}

// Space is a workspace as listed for its members.
type Space struct {
	ID                int64     `json:"id"`
	UUID              string    `json:"uuid"`
	Name              string    `json:"name"`
	CreatedBy         string    `json:"createdBy"`
	CreatedDate       time.Time `json:"createdDate"`
	LastModifiedDate  time.Time `json:"lastModifiedDate"`
	TodayViewIsPublic bool      `json:"todayViewIsPublic"`
}

// Spaces lists the spaces the caller belongs to.
func (c *Client) Spaces(ctx context.Context) ([]Space, error) {
	var spaces []Space
	if err := c.do(ctx, http.MethodGet, "/api/user/spaces", nil, &spaces); err != nil {
		return nil, err
	}
	return spaces, nil
}

// CreateSpace creates a private space owned by the caller.
func (c *Client) CreateSpace(ctx context.Context, name string) (Space, error) {
	var space Space
	if err := c.do(ctx, http.MethodPost, "/api/user/spaces", map[string]string{"name": name}, &space); err != nil {
		return Space{}, err
	}
	return space, nil
}

// Person is the subset of a person the tools display.
type Person struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	NewPerson bool   `json:"newPerson"`
	SpaceRole *struct {
		Name string `json:"name"`
	} `json:"spaceRole"`
}

// RoleName returns the person's role, or "" when unset.
func (p Person) RoleName() string {
	if p.SpaceRole == nil {
		return ""
	}
	return p.SpaceRole.Name
}

// People lists the people in a space.
func (c *Client) People(ctx context.Context, spaceUUID string) ([]Person, error) {
	var people []Person
	if err := c.do(ctx, http.MethodGet, "/api/spaces/"+url.PathEscape(spaceUUID)+"/people", nil, &people); err != nil {
		return nil, err
	}
	return people, nil
}

// Reassignment describes one person's move on a date.
type Reassignment struct {
	Person          Person `json:"person"`
	FromProductName string `json:"fromProductName"`
	ToProductName   string `json:"toProductName"`
}

// Reassignments lists who moved on date (YYYY-MM-DD).
func (c *Client) Reassignments(ctx context.Context, spaceUUID, date string) ([]Reassignment, error) {
	var moves []Reassignment
	path := fmt.Sprintf("/api/spaces/%s/reassignment/%s", url.PathEscape(spaceUUID), url.PathEscape(date))
	if err := c.do(ctx, http.MethodGet, path, nil, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}

// EffectiveDates lists the dates on which assignments changed.
func (c *Client) EffectiveDates(ctx context.Context, spaceUUID string) ([]string, error) {
	var dates []string
	if err := c.do(ctx, http.MethodGet, "/api/spaces/"+url.PathEscape(spaceUUID)+"/assignment/dates", nil, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// PeopleRow is one line of the people report.
type PeopleRow struct {
	ProductName string `json:"productName"`
	PersonName  string `json:"personName"`
	PersonRole  string `json:"personRole"`
}

// PeopleReport lists who works on which product in a space on date.
func (c *Client) PeopleReport(ctx context.Context, spaceUUID, date string) ([]PeopleRow, error) {
	var rows []PeopleRow
	path := fmt.Sprintf("/api/reportgenerator/%s/%s", url.PathEscape(spaceUUID), url.PathEscape(date))
	if err := c.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// SpaceRow summarizes a space and its members.
type SpaceRow struct {
	SpaceName string   `json:"spaceName"`
	CreatedBy string   `json:"createdBy"`
	Users     []string `json:"users"`
}

// SpaceReport summarizes every space. Only report administrators may call it.
func (c *Client) SpaceReport(ctx context.Context) ([]SpaceRow, error) {
	var rows []SpaceRow
	if err := c.do(ctx, http.MethodGet, "/api/reportgenerator/space", nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UserReport lists every user mapped to a space.
func (c *Client) UserReport(ctx context.Context) ([]string, error) {
	var users []string
	if err := c.do(ctx, http.MethodGet, "/api/reportgenerator/user", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Health calls the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}
