package backend

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/appforge/internal/errors"
)

// Registry manages named backend clients. The first client registered (or
// loaded) becomes the default unless SetDefault overrides it.
type Registry struct {
	mu         sync.RWMutex
	clients    map[string]Client
	defaultKey string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]Client),
	}
}

// Register adds a client under its name.
func (r *Registry) Register(name string, client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; exists {
		return errors.New(errors.ErrCodeBackendConfig,
			fmt.Sprintf("backend %q already registered", name))
	}

	r.clients[name] = client
	if r.defaultKey == "" {
		r.defaultKey = name
	}

	return nil
}

// Get retrieves a client by name.
func (r *Registry) Get(name string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, exists := r.clients[name]
	if !exists {
		return nil, errors.New(errors.ErrCodeBackendNotFound,
			fmt.Sprintf("backend %q not found", name)).
			WithSuggestion("Run 'appforge init' to configure a backend")
	}

	return client, nil
}

// Default returns the default client.
func (r *Registry) Default() (Client, error) {
	r.mu.RLock()
	key := r.defaultKey
	r.mu.RUnlock()

	if key == "" {
		return nil, errors.New(errors.ErrCodeBackendNotFound, "no backends registered").
			WithSuggestion("Run 'appforge init' to configure a backend")
	}

	return r.Get(key)
}

// SetDefault marks a registered client as the default.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[name]; !exists {
		return errors.New(errors.ErrCodeBackendNotFound,
			fmt.Sprintf("backend %q not found", name))
	}

	r.defaultKey = name
	return nil
}

// List returns all registered backend names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}

	return names
}

// LoadFromConfig constructs a client from its config and registers it.
func (r *Registry) LoadFromConfig(cfg Config) error {
	client, err := New(cfg)
	if err != nil {
		return err
	}
	return r.Register(client.Name(), client)
}

// CloseAll closes every registered client and empties the registry.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, client := range r.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close backend %s: %w", name, err))
		}
	}

	r.clients = make(map[string]Client)
	r.defaultKey = ""

	if len(errs) > 0 {
		return fmt.Errorf("errors closing backends: %v", errs)
	}

	return nil
}
