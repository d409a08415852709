// Package di is a minimal token-keyed registry that lets handlers depend on
// abstract repository/service contracts while tests swap in alternate
// implementations. It performs no lifecycle management, scoping or
// circular-dependency detection.
package di

import (
	"fmt"
	"sync"
)

// DefaultKey is the manager key used when no explicit key is given.
const DefaultKey = "default"

type tokenID struct {
	description string
}

// Token identifies a registered capability. The type parameter exists only at
// compile time to type Resolve; uniqueness comes from the identity of the
// underlying pointer, not from the description string.
type Token[T any] struct {
	id *tokenID
}

// NewToken mints a fresh token. Two tokens created from the same description
// are still distinct.
func NewToken[T any](description string) Token[T] {
	return Token[T]{id: &tokenID{description: description}}
}

// Description returns the human-readable description the token was created with.
func (t Token[T]) Description() string {
	if t.id == nil {
		return ""
	}
	return t.id.description
}

// Container is an immutable token-to-value registry. Register returns a
// derived container; containers returned earlier are unaffected.
type Container struct {
	state map[*tokenID]any
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{state: map[*tokenID]any{}}
}

// Register binds a value to a token, returning the updated container.
func Register[T any](c *Container, token Token[T], value T) *Container {
	next := make(map[*tokenID]any, len(c.state)+1)
	for k, v := range c.state {
		next[k] = v
	}
	next[token.id] = value
	return &Container{state: next}
}

// Resolve returns the value bound to the token, or an error naming the
// token's description when nothing is registered under it.
func Resolve[T any](c *Container, token Token[T]) (T, error) {
	v, ok := c.state[token.id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("token %q not found", token.Description())
	}
	return v.(T), nil
}

// MustResolve is Resolve for wiring paths where a missing registration is a
// programming error.
func MustResolve[T any](c *Container, token Token[T]) T {
	v, err := Resolve(c, token)
	if err != nil {
		panic(err)
	}
	return v
}

// ResolveAll returns a snapshot of the container state keyed by token
// description.
func (c *Container) ResolveAll() map[string]any {
	snapshot := make(map[string]any, len(c.state))
	for id, v := range c.state {
		snapshot[id.description] = v
	}
	return snapshot
}

// Manager holds named containers and a current default.
type Manager struct {
	mu         sync.RWMutex
	containers map[string]*Container
	defaultKey string
}

// NewManager returns a manager with no containers and "default" as the
// default key.
func NewManager() *Manager {
	return &Manager{
		containers: map[string]*Container{},
		defaultKey: DefaultKey,
	}
}

// RegisterContainer adds a container under key (DefaultKey when empty). It
// fails if the key is already taken.
func (m *Manager) RegisterContainer(c *Container, key string) error {
	if key == "" {
		key = DefaultKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.containers[key]; exists {
		return fmt.Errorf("container %q already exists", key)
	}
	m.containers[key] = c
	return nil
}

// GetContainer returns the container for key, or the current default when key
// is empty.
func (m *Manager) GetContainer(key string) (*Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if key == "" {
		key = m.defaultKey
	}
	c, ok := m.containers[key]
	if !ok {
		return nil, fmt.Errorf("container %q not found", key)
	}
	return c, nil
}

// SetDefaultContainer changes which key GetContainer resolves without an
// explicit key. It fails if the key is unregistered.
func (m *Manager) SetDefaultContainer(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containers[key]; !ok {
		return fmt.Errorf("container %q not found", key)
	}
	m.defaultKey = key
	return nil
}
