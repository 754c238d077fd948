package paprika

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production Paprika v2 API endpoint.
const DefaultBaseURL = "https://www.paprikaapp.com/api/v2"

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("paprika api: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if repeated: rate
// limits and server-side failures are transient, client errors are not.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to the Paprika sync API. All methods honor the request
// context and return the decoded "result" payload.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a client around an existing bearer token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginResult struct {
	Token string `json:"token"`
}

// Login exchanges account credentials for a bearer token and returns a
// client authenticated with it.
func Login(ctx context.Context, email, password string, opts ...Option) (*Client, error) {
	c := NewClient("", opts...)

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/account/login/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	var result loginResult
	if err := decodeResult(resp, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: empty token in response")
	}
	c.token = result.Token
	return c, nil
}

// Token returns the bearer token the client authenticates with.
func (c *Client) Token() string { return c.token }

// decodeResult unwraps the {"result": ...} envelope every endpoint uses.
func decodeResult(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := decodeResult(resp, out); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

// Status returns the per-collection sync positions. A position change is
// the only signal that a collection needs to be fetched again.
func (c *Client) Status(ctx context.Context) (map[string]int64, error) {
	var status map[string]int64
	if err := c.get(ctx, "/sync/status/", &status); err != nil {
		return nil, err
	}
	return status, nil
}

// Recipes returns the (uid, hash) pairs for every recipe in the account,
// trashed ones included. Full bodies come from Recipe.
func (c *Client) Recipes(ctx context.Context) ([]RecipeHash, error) {
	var items []RecipeHash
	if err := c.get(ctx, "/sync/recipes/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Recipe fetches one full recipe body.
func (c *Client) Recipe(ctx context.Context, uid string) (*Recipe, error) {
	var recipe Recipe
	if err := c.get(ctx, "/sync/recipe/"+url.PathEscape(uid)+"/", &recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (c *Client) Photos(ctx context.Context) ([]Photo, error) {
	var items []Photo
	if err := c.get(ctx, "/sync/photos/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Meals(ctx context.Context) ([]Meal, error) {
	var items []Meal
	if err := c.get(ctx, "/sync/meals/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) MealTypes(ctx context.Context) ([]MealType, error) {
	var items []MealType
	if err := c.get(ctx, "/sync/mealtypes/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Menus(ctx context.Context) ([]Menu, error) {
	var items []Menu
	if err := c.get(ctx, "/sync/menus/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) MenuItems(ctx context.Context) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.get(ctx, "/sync/menuitems/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Groceries(ctx context.Context) ([]GroceryItem, error) {
	var items []GroceryItem
	if err := c.get(ctx, "/sync/groceries/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Aisles(ctx context.Context) ([]Aisle, error) {
	var items []Aisle
	if err := c.get(ctx, "/sync/groceryaisles/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GroceryLists(ctx context.Context) ([]GroceryList, error) {
	var items []GroceryList
	if err := c.get(ctx, "/sync/grocerylists/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GroceryIngredients(ctx context.Context) ([]GroceryIngredient, error) {
	var items []GroceryIngredient
	if err := c.get(ctx, "/sync/groceryingredients/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Pantry(ctx context.Context) ([]PantryItem, error) {
	var items []PantryItem
	if err := c.get(ctx, "/sync/pantry/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Bookmarks(ctx context.Context) ([]Bookmark, error) {
	var items []Bookmark
	if err := c.get(ctx, "/sync/bookmarks/", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var items []Category
	if err := c.get(ctx, "/sync/categories/", &items); err != nil {
		return nil, err
	}
	return items, nil
}
