package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edvin/agentdesk/internal/crypto"
	"github.com/edvin/agentdesk/internal/model"
)

// Memory is an in-process identity directory for development and tests.
// Email uniqueness is enforced the same way the real directory does it.
type Memory struct {
	mu      sync.Mutex
	byID    map[string]*memoryEntry
	byEmail map[string]string
}

type memoryEntry struct {
	identity     Identity
	passwordHash string
}

// NewMemory creates an empty in-process directory.
func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]*memoryEntry),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) CreateIdentity(_ context.Context, email, password string, meta model.IdentityMetadata) (*Identity, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("create identity %s: %w", email, err)
	}

	key := strings.ToLower(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byEmail[key]; ok {
		return nil, fmt.Errorf("create identity %s: %w", email, ErrAlreadyExists)
	}

	entry := &memoryEntry{
		identity:     Identity{ID: uuid.NewString(), Email: email, Metadata: meta},
		passwordHash: hash,
	}
	m.byID[entry.identity.ID] = entry
	m.byEmail[key] = entry.identity.ID

	identity := entry.identity
	return &identity, nil
}

func (m *Memory) FindIdentityByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("find identity %s: %w", email, ErrNotFound)
	}
	identity := m.byID[id].identity
	return &identity, nil
}

func (m *Memory) UpdateIdentityMetadata(_ context.Context, id string, meta model.IdentityMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("update identity %s: %w", id, ErrNotFound)
	}
	entry.identity.Metadata = meta
	return nil
}

func (m *Memory) DeleteIdentity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("delete identity %s: %w", id, ErrNotFound)
	}
	delete(m.byEmail, strings.ToLower(entry.identity.Email))
	delete(m.byID, id)
	return nil
}

// CheckPassword reports whether password matches the stored credential for email.
func (m *Memory) CheckPassword(email, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return false
	}
	return crypto.VerifyPassword(password, m.byID[id].passwordHash)
}

// Len returns the number of identities.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
