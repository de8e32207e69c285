package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/idlekit/internal/core/domain"
)

func TestIdentity_Current(t *testing.T) {
	ctx := context.Background()

	id, err := NewIdentity(memory.NewConfigStoreFrom(map[string]any{KeyIdentity: " 7656 "})).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7656", id)

	id, err = NewIdentity(memory.NewConfigStoreFrom(map[string]any{KeyIdentity: int64(7657)})).Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "7657", id)
}

func TestIdentity_Missing(t *testing.T) {
	ctx := context.Background()

	_, err := NewIdentity(memory.NewConfigStore()).Current(ctx)
	assert.ErrorIs(t, err, domain.ErrNoIdentity)

	_, err = NewIdentity(nil).Current(ctx)
	assert.ErrorIs(t, err, domain.ErrNoIdentity)
}
