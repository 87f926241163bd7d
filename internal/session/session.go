// Package session holds bearer-token sessions in process memory.
// Sessions are scoped to process lifetime: a restart drops them all and
// callers must re-authenticate.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

const tokenBytes = 24

// Manager maps opaque bearer tokens to usernames.
type Manager struct {
	mu     sync.RWMutex
	tokens map[string]string
}

// NewManager creates an empty session table.
func NewManager() *Manager {
	return &Manager{tokens: make(map[string]string)}
}

// Create issues a fresh token bound to username.
func (m *Manager) Create(username string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	m.mu.Lock()
	m.tokens[token] = username
	m.mu.Unlock()
	return token, nil
}

// Resolve returns the username bound to a token.
func (m *Manager) Resolve(token string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	username, ok := m.tokens[token]
	return username, ok
}

// Destroy removes a token. Destroying an absent token is a no-op;
// logout is best-effort and always succeeds from the caller's side.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.tokens, token)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}
