// Package client is a Go consumer of the blog API: an HTTP client with
// bearer-token and 401 handling, a persisted auth Session, and a PostStore
// that keeps list/detail/category state in sync with mutations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response. Message and Errors carry the server's
// error and errors fields verbatim.
type APIError struct {
	Status  int
	Message string
	Errors  []FieldError
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return http.StatusText(e.Status)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// credentials is what the client needs from a session.
type credentials interface {
	Token() string
	Clear() error
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Errors     []FieldError    `json:"errors"`
	Token      string          `json:"token"`
	User       *User           `json:"user"`
}

// Client talks to the API under baseURL (for example http://localhost:5000/api).
type Client struct {
	baseURL        string
	http           *http.Client
	creds          credentials
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUnauthorizedHook runs fn after a 401 to an authenticated request has
// cleared the session.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in interface{}) (*envelope, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	authed := false
	if c.creds != nil {
		if tok := c.creds.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
			authed = true
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, &APIError{Status: resp.StatusCode}
			}
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if resp.StatusCode == http.StatusUnauthorized && authed {
			c.unauthorized()
		}
		return nil, &APIError{Status: resp.StatusCode, Message: env.Error, Errors: env.Errors}
	}
	return &env, nil
}

func (c *Client) unauthorized() {
	if c.creds != nil {
		_ = c.creds.Clear()
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func decodeData(env *envelope, out interface{}) error {
	if len(env.Data) == 0 || out == nil {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// AuthResult is the body of register and login.
type AuthResult struct {
	Token string
	User  *User
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/register", nil, map[string]string{
		"name": name, "email": email, "password": password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: env.Token, User: env.User}, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email": email, "password": password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: env.Token, User: env.User}, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	env, err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return env.User, nil
}

// ListPosts fetches one page of published posts.
func (c *Client) ListPosts(ctx context.Context, p ListParams) ([]Post, Pagination, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Tag != "" {
		q.Set("tag", p.Tag)
	}

	env, err := c.do(ctx, http.MethodGet, "/posts", q, nil)
	if err != nil {
		return nil, Pagination{}, err
	}
	var posts []Post
	if err := decodeData(env, &posts); err != nil {
		return nil, Pagination{}, err
	}
	page := DefaultPagination
	if env.Pagination != nil {
		page = *env.Pagination
	}
	return posts, page, nil
}

func (c *Client) GetPost(ctx context.Context, idOrSlug string) (*Post, error) {
	return c.postCall(ctx, http.MethodGet, "/posts/"+url.PathEscape(idOrSlug), nil)
}

func (c *Client) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	return c.postCall(ctx, http.MethodPost, "/posts", in)
}

func (c *Client) UpdatePost(ctx context.Context, id string, in PostInput) (*Post, error) {
	return c.postCall(ctx, http.MethodPut, "/posts/"+url.PathEscape(id), in)
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id), nil, nil)
	return err
}

// AddComment returns the post with its refreshed comment list.
func (c *Client) AddComment(ctx context.Context, postID, content string) (*Post, error) {
	return c.postCall(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments",
		map[string]string{"content": content})
}

func (c *Client) SearchPosts(ctx context.Context, term string) ([]Post, error) {
	env, err := c.do(ctx, http.MethodGet, "/posts/search", url.Values{"q": {term}}, nil)
	if err != nil {
		return nil, err
	}
	var posts []Post
	return posts, decodeData(env, &posts)
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	env, err := c.do(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	var cats []Category
	return cats, decodeData(env, &cats)
}

// CreateCategory requires an admin session.
func (c *Client) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	env, err := c.do(ctx, http.MethodPost, "/categories", nil, map[string]string{
		"name": name, "description": description,
	})
	if err != nil {
		return nil, err
	}
	var cat Category
	if err := decodeData(env, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) postCall(ctx context.Context, method, path string, in interface{}) (*Post, error) {
	env, err := c.do(ctx, method, path, nil, in)
	if err != nil {
		return nil, err
	}
	var p Post
	if err := decodeData(env, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
