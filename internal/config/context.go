package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roostchat/roost/internal/models"
)

// Context is the persisted CLI context: the filter scope the user last
// worked in. CLI commands that omit --filter or --category pick it up.
type Context struct {
	// Filter is the currently selected list filter.
	Filter string `yaml:"filter,omitempty"`
	// Category is the currently selected category, if any.
	Category string `yaml:"category,omitempty"`
	// UpdatedAt is when the context was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no context is set.
func (c *Context) IsEmpty() bool {
	return c.Filter == "" && c.Category == ""
}

// Clear removes all context.
func (c *Context) Clear() {
	c.Filter = ""
	c.Category = ""
	c.UpdatedAt = time.Now()
}

// SetScope records the filter scope.
func (c *Context) SetScope(filter, category string) {
	c.Filter = filter
	c.Category = category
	c.UpdatedAt = time.Now()
}

// FilterContext resolves the persisted scope, defaulting to the full list.
func (c *Context) FilterContext() (models.FilterContext, error) {
	fc := models.FilterContext{Filter: models.FilterAll, Category: c.Category}
	if c.Filter == "" {
		return fc, nil
	}
	filter, err := models.ParseFilter(c.Filter)
	if err != nil {
		return fc, err
	}
	fc.Filter = filter
	return fc, nil
}

// String returns a human-readable representation of the context.
func (c *Context) String() string {
	if c.IsEmpty() {
		return "(no context set)"
	}
	filter := c.Filter
	if filter == "" {
		filter = string(models.FilterAll)
	}
	if c.Category == "" {
		return fmt.Sprintf("filter:%s", filter)
	}
	return fmt.Sprintf("filter:%s category:%s", filter, c.Category)
}

// ContextStore manages loading and saving context.
type ContextStore struct {
	path string
	mu   sync.RWMutex
}

// NewContextStore creates a new context store.
// If path is empty, uses the default path (~/.config/roost/context.yaml).
func NewContextStore(path string) *ContextStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "roost", "context.yaml")
	}
	return &ContextStore{path: path}
}

// DefaultContextStore returns a context store using the default path.
func DefaultContextStore() *ContextStore {
	return NewContextStore("")
}

// Path returns the context file path.
func (s *ContextStore) Path() string {
	return s.path
}

// Load reads the context from disk.
// Returns an empty context if the file doesn't exist.
func (s *ContextStore) Load() (*Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := &Context{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ctx, nil
		}
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}

	if err := yaml.Unmarshal(data, ctx); err != nil {
		return nil, fmt.Errorf("failed to parse context file: %w", err)
	}

	return ctx, nil
}

// Save writes the context to disk.
func (s *ContextStore) Save(ctx *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}

	data, err := yaml.Marshal(ctx)
	if err != nil {
		return fmt.Errorf("failed to serialize context: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}

	return nil
}

// Clear removes the context file.
func (s *ContextStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove context file: %w", err)
	}
	return nil
}
