package vectorstore

import "fmt"

// Provider identifiers accepted by NewStore.
const (
	ProviderQdrant  = "qdrant"
	ProviderChromem = "chromem"
)

// Config selects and configures a Store backend.
type Config struct {
	// Provider is the backend: "qdrant" or "chromem".
	Provider string

	Qdrant  QdrantConfig
	Chromem ChromemConfig
}

// NewStore creates a Store for the configured provider.
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case ProviderQdrant:
		return NewQdrantStore(config.Qdrant)
	case ProviderChromem:
		return NewChromemStore(config.Chromem)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
}
