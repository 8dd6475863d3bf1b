package receptradar

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Client is the main interface for the pantry and its recipes. It owns the
// store and, optionally, a recipe generator.
type Client struct {
	store     *Store
	generator RecipeGenerator
	logger    *zap.Logger
	config    Config

	mu     sync.Mutex
	closed bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithGenerator attaches a recipe generator.
func WithGenerator(g RecipeGenerator) ClientOption {
	return func(c *Client) { c.generator = g }
}

// WithClientLogger sets the logger for the client and its store.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client. The store is opened and migrated before New returns;
// a migration failure is returned as an error.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	cfg = cfg.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}

	store, err := NewStore(cfg.DBPath, WithLogger(c.logger))
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	c.store = store
	return c, nil
}

// Store returns the underlying store.
func (c *Client) Store() *Store { return c.store }

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// Stats returns store statistics.
func (c *Client) Stats(ctx context.Context) (*StoreStats, error) {
	return c.store.Stats(ctx)
}

// Pantry returns every pantry item, most recently updated first.
func (c *Client) Pantry(ctx context.Context) ([]PantryItem, error) {
	return c.store.Pantry().All(ctx)
}

// AddPantryItem adds an item to the pantry.
func (c *Client) AddPantryItem(ctx context.Context, item NewPantryItem) (*PantryItem, error) {
	return c.store.Pantry().Create(ctx, item)
}

// RemovePantryItem removes an item from the pantry.
func (c *Client) RemovePantryItem(ctx context.Context, id int64) error {
	return c.store.Pantry().Delete(ctx, id)
}

// Ingredients returns the ingredient names derived from the pantry.
func (c *Client) Ingredients(ctx context.Context) ([]string, error) {
	items, err := c.store.Pantry().All(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIngredients(items), nil
}

// GeneratedRecipe returns a stored generated recipe, or nil.
func (c *Client) GeneratedRecipe(ctx context.Context, id int64) (*GeneratedRecipe, error) {
	return c.store.Generated().GetByID(ctx, id)
}

// Close closes the client and its store.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.store.Close()
}
