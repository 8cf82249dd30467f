package alerting

import (
	"errors"
	"sync"
)

var ErrMissingTokenField = errors.New("both token and owner id are required")

// TokenRegistry is the process-wide set of push tokens registered by client apps.
// Tokens live until the process exits; nothing here expires or removes them.
type TokenRegistry struct {
	mu     sync.RWMutex
	owners map[string]string // token -> owner that first registered it
}

func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{owners: make(map[string]string)}
}

// Register adds the token to the set as given. Only empty values are rejected.
// It reports whether the token was new; registering a known token again changes nothing.
func (r *TokenRegistry) Register(token, ownerID string) (bool, error) {
	if token == "" || ownerID == "" {
		return false, ErrMissingTokenField
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.owners[token]; exists {
		return false, nil
	}
	r.owners[token] = ownerID
	return true, nil
}

// Tokens returns a snapshot of the registered tokens in no particular order
func (r *TokenRegistry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.owners))
	for token := range r.owners {
		tokens = append(tokens, token)
	}
	return tokens
}

func (r *TokenRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
