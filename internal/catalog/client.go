package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/badno/catimport/pkg/models"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// Config holds catalog API connection settings
type Config struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	MaxRetries        int
	RetryWait         time.Duration
	RequestsPerSecond int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:           "http://localhost:8080/api/v1",
		Timeout:           30 * time.Second,
		MaxRetries:        2,
		RetryWait:         500 * time.Millisecond,
		RequestsPerSecond: 10,
	}
}

// ConfigFromEnv returns the defaults with the token read from tokenEnv
func ConfigFromEnv(baseURL, tokenEnv string) Config {
	cfg := DefaultConfig()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.Token = os.Getenv(tokenEnv)
	return cfg
}

// envelope is the response wrapper used by every catalog endpoint
type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

// Client talks to the catalog-write REST API
type Client struct {
	http *resty.Client
	rl   ratelimit.Limiter
}

var _ API = (*Client)(nil)

// NewClient creates a new catalog API client
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "catimport/1.0")

	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.RequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.RequestsPerSecond)
	}

	return &Client{http: httpClient, rl: rl}
}

// Close releases idle connections
func (c *Client) Close() error {
	return c.http.Close()
}

// wait blocks on the rate limiter. The limiter cannot be interrupted, so a
// context that ends while waiting is reported once the slot is granted.
func (c *Client) wait(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	c.rl.Take()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// ListCategories fetches every existing category
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := c.wait(ctx, "list categories"); err != nil {
		return nil, err
	}
	var out envelope[[]models.Category]
	resp, err := c.request(ctx).
		SetResult(&out).
		Get("/categories")
	if err := check("list categories", resp, err); err != nil {
		return nil, err
	}

	log.WithField("count", len(out.Data)).Debug("Fetched category snapshot")
	return out.Data, nil
}

// CreateCategory creates a category and returns its id
func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (int64, error) {
	if err := c.wait(ctx, "create category"); err != nil {
		return 0, err
	}
	var out envelope[idResponse]
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/categories")
	if err := check("create category", resp, err); err != nil {
		return 0, err
	}
	return out.Data.ID, nil
}

// CreateProduct creates a product and returns its id
func (c *Client) CreateProduct(ctx context.Context, req CreateProductRequest) (int64, error) {
	if err := c.wait(ctx, "create product"); err != nil {
		return 0, err
	}
	var out envelope[idResponse]
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/products")
	if err := check("create product", resp, err); err != nil {
		return 0, err
	}
	return out.Data.ID, nil
}

// AssignCategories replaces the category links of a product
func (c *Client) AssignCategories(ctx context.Context, productID int64, categoryIDs []int64) error {
	if err := c.wait(ctx, "assign categories"); err != nil {
		return err
	}
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetBody(AssignCategoriesRequest{CategoryIDs: categoryIDs}).
		Put("/products/{id}/categories")
	return check("assign categories", resp, err)
}

// CreateVariant adds a variant to a product
func (c *Client) CreateVariant(ctx context.Context, productID int64, req CreateVariantRequest) error {
	if err := c.wait(ctx, "create variant"); err != nil {
		return err
	}
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.FormatInt(productID, 10)).
		SetBody(req).
		Post("/products/{id}/variants")
	return check("create variant", resp, err)
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if resp.IsError() || !resp.IsSuccess() {
		return &APIError{
			Operation:  op,
			StatusCode: resp.StatusCode(),
			Body:       resp.String(),
		}
	}
	return nil
}
