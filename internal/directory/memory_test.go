package directory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/agentdesk/internal/model"
)

func TestMemory_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateIdentity(ctx, "Ada@Example.com", "p1", testMeta)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	found, err := m.FindIdentityByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, testMeta, found.Metadata)
	assert.True(t, m.CheckPassword("ada@example.com", "p1"))
	assert.False(t, m.CheckPassword("ada@example.com", "p2"))
}

func TestMemory_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.CreateIdentity(ctx, "ada@example.com", "p1", testMeta)
	require.NoError(t, err)

	_, err = m.CreateIdentity(ctx, "ADA@example.com", "p2", testMeta)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.CreateIdentity(ctx, "race@example.com", "p", testMeta)
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, m.Len())
}

func TestMemory_UpdateMetadata(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateIdentity(ctx, "ada@example.com", "p1", testMeta)
	require.NoError(t, err)

	updated := model.IdentityMetadata{Role: "agent", FullName: "Ada Lovelace", CompanyName: "Acme"}
	require.NoError(t, m.UpdateIdentityMetadata(ctx, created.ID, updated))

	found, err := m.FindIdentityByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, updated, found.Metadata)

	assert.ErrorIs(t, m.UpdateIdentityMetadata(ctx, "missing", updated), ErrNotFound)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	created, err := m.CreateIdentity(ctx, "ada@example.com", "p1", testMeta)
	require.NoError(t, err)

	require.NoError(t, m.DeleteIdentity(ctx, created.ID))

	_, err = m.FindIdentityByEmail(ctx, "ada@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteIdentity(ctx, created.ID), ErrNotFound)

	// The email is free again.
	_, err = m.CreateIdentity(ctx, "ada@example.com", "p2", testMeta)
	require.NoError(t, err)
}
