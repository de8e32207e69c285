package file

import (
	"context"
	"strconv"
	"strings"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
)

// Identity resolves the active account from the identity.id config key.
// The key is read on every call so edits to config.toml apply after a reload.
type Identity struct {
	config driven.ConfigStore
}

var _ driven.IdentityProvider = (*Identity)(nil)

// NewIdentity creates an identity provider backed by config.
func NewIdentity(config driven.ConfigStore) *Identity {
	return &Identity{config: config}
}

// Current returns the configured identity or domain.ErrNoIdentity.
func (i *Identity) Current(_ context.Context) (string, error) {
	if i.config == nil {
		return "", domain.ErrNoIdentity
	}
	id := strings.TrimSpace(i.config.GetString(KeyIdentity))
	if id == "" {
		// TOML users may write the ID unquoted.
		if n := i.config.GetInt(KeyIdentity); n > 0 {
			return strconv.Itoa(n), nil
		}
		return "", domain.ErrNoIdentity
	}
	return id, nil
}
