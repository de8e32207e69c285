package driven

// ConfigStore holds user settings under dotted keys such as
// "host.helper_path". Typed getters return the zero value when a key is
// missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat widens integers.
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set persists immediately.
	Set(key string, value any) error
	Save() error
	// Load discards in-memory values and re-reads storage.
	Load() error
	Path() string
}
