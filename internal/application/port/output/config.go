package output

// ConfigPort exposes process-level settings such as credentials from the environment.
type ConfigPort interface {
	Get(key string) string
	Lookup(key string) (string, bool)
	GetWithDefault(key string, defaultValue string) string
	GetBool(key string, defaultValue bool) bool
}
