package driven

import "context"

// SettingsStore persists automation settings per identity as string values.
type SettingsStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, identity, key string) (string, bool, error)

	// Set stores value for key.
	Set(ctx context.Context, identity, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, identity, key string) error

	// All returns every stored key/value for identity.
	All(ctx context.Context, identity string) (map[string]string, error)
}
