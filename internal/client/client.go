// Package client talks to the meal planner API on behalf of interactive
// front ends such as the mealplan CLI.
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

	"meal-planner/internal/recipe"
	"meal-planner/internal/shopping"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d message=%s", e.Status, e.Message)
}

// Client is an authenticated API client. It implements shopping.Backend.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for the API at baseURL using a session token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var _ shopping.Backend = (*Client)(nil)

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// FetchShoppingList returns the list of planID, or of the next plan when
// planID is 0.
func (c *Client) FetchShoppingList(ctx context.Context, planID int64) (*shopping.List, error) {
	path := "/api/shopping-list"
	if planID != 0 {
		path = fmt.Sprintf("/api/plans/%d/shopping-list", planID)
	}
	var list shopping.List
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// UpdateShoppingList sends the whole entry array of list.
func (c *Client) UpdateShoppingList(ctx context.Context, list shopping.List) (*shopping.List, error) {
	if list.Plan.ID == 0 {
		return nil, shopping.ErrMissingPlanContext
	}
	req := struct {
		Plan        planRef          `json:"plan"`
		Ingredients []shopping.Entry `json:"ingredients"`
	}{planRef{list.Plan.ID}, list.Ingredients}

	var out shopping.List
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/plans/%d/shopping-list", list.Plan.ID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type planRef struct {
	ID int64 `json:"id"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, name, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", credentials{email, name, password}, nil)
}

// Login starts a session and makes the client use its token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password}, &out); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

func (c *Client) RecipeBySlug(ctx context.Context, slug string) (*recipe.Recipe, error) {
	var r recipe.Recipe
	if err := c.do(ctx, http.MethodGet, "/api/recipes?slug="+url.QueryEscape(slug), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) CreateRecipe(ctx context.Context, rec recipe.Recipe) (*recipe.Recipe, error) {
	var out recipe.Recipe
	if err := c.do(ctx, http.MethodPost, "/api/recipes", rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRecipe(ctx context.Context, id int64, rec recipe.Recipe) (*recipe.Recipe, error) {
	var out recipe.Recipe
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/recipes/%d", id), rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Tags returns every known tag, for autocomplete.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
