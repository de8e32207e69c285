package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

func TestParseTitle(t *testing.T) {
	title, err := parseTitle([]string{"400", "Half-Life", "2"})
	require.NoError(t, err)
	assert.Equal(t, domain.Title{ID: 400, Name: "Half-Life 2"}, title)

	title, err = parseTitle([]string{"620"})
	require.NoError(t, err)
	assert.Empty(t, title.Name)

	for _, bad := range []string{"-1", "0", "abc"} {
		_, err := parseTitle([]string{bad})
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestParseListName(t *testing.T) {
	name, err := parseListName("card-farming")
	require.NoError(t, err)
	assert.Equal(t, domain.ListCardFarming, name)

	_, err = parseListName("wishlist")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFormatTitles(t *testing.T) {
	assert.Equal(t, "none", formatTitles(nil))
	assert.Equal(t, "Portal (400), 620", formatTitles([]domain.Title{{ID: 400, Name: "Portal"}, {ID: 620}}))
}

func TestInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.False(t, interrupted(ctx, context.Canceled))

	cancel()
	assert.True(t, interrupted(ctx, context.Canceled))
	assert.True(t, interrupted(ctx, errors.Join(errors.New("run"), context.Canceled)))
	assert.False(t, interrupted(ctx, errors.New("boom")))
}

func TestNotConfigured(t *testing.T) {
	assert.EqualError(t, notConfigured("scheduler"), "scheduler not configured")
}
