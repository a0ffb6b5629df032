package config

const (
	defaultCount        = 3
	defaultAttempts     = 3
	defaultInitialDelay = "1s"
	defaultMaxDelay     = "30s"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultStorageProvider     = StorageMemory
	defaultEventStreamProvider = EventStreamNop
	defaultEventStreamTopic    = "screens.events"

	defaultEndpointName     = "local"
	defaultEndpointProvider = "ollama"
	defaultEndpointBaseURL  = "http://localhost:11434"
	defaultEndpointModel    = "qwen2.5-coder"
)

// Storage backend names accepted by storage.provider.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Event publisher names accepted by eventstream.provider.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

// EndpointProviders lists the backends an [[endpoints]] entry may name.
var EndpointProviders = []string{"openai", "anthropic", "ollama", "gemini"}

// StorageProviders lists the supported storage backends.
var StorageProviders = []string{StorageMemory, StorageSQLite, StoragePostgres}

// EventStreamProviders lists the supported event publishers.
var EventStreamProviders = []string{EventStreamNop, EventStreamKafka}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version:   CurrentV,
		Endpoints: []EndpointConfig{defaultEndpoint()},
		Generation: GenerationConfig{
			Count:        defaultCount,
			Attempts:     defaultAttempts,
			InitialDelay: defaultInitialDelay,
			MaxDelay:     defaultMaxDelay,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}

func defaultEndpoint() EndpointConfig {
	return EndpointConfig{
		Name:     defaultEndpointName,
		Provider: defaultEndpointProvider,
		BaseURL:  defaultEndpointBaseURL,
		Model:    defaultEndpointModel,
	}
}
