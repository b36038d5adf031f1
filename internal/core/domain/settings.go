package domain

// AIProvider identifies the service behind the LLM or the embeddings.
type AIProvider string

// Supported providers.
const (
	AIProviderOllama AIProvider = "ollama"
	AIProviderOpenAI AIProvider = "openai"
)

type providerInfo struct {
	description    string
	needsKey       bool
	llmModel       string
	embeddingModel string
}

var providers = map[AIProvider]providerInfo{
	AIProviderOllama: {
		description:    "Ollama (local)",
		llmModel:       "llama3.2",
		embeddingModel: "nomic-embed-text",
	},
	AIProviderOpenAI: {
		description:    "OpenAI (cloud)",
		needsKey:       true,
		llmModel:       "gpt-4o-mini",
		embeddingModel: "text-embedding-3-small",
	},
}

// embeddingDimensions lists the vector size of well-known embedding models.
var embeddingDimensions = map[string]int{
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// IsValid reports whether p is a supported provider.
func (p AIProvider) IsValid() bool {
	_, ok := providers[p]
	return ok
}

// RequiresAPIKey reports whether calls to p need an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return providers[p].needsKey
}

// Description is the name shown in logs and the CLI.
func (p AIProvider) Description() string {
	if info, ok := providers[p]; ok {
		return info.description
	}
	return "Unknown"
}

// DefaultLLMModel is the model used when none is configured for p.
func (p AIProvider) DefaultLLMModel() string {
	return providers[p].llmModel
}

// DefaultEmbeddingModel is the embedding model used when none is configured
// for p.
func (p AIProvider) DefaultEmbeddingModel() string {
	return providers[p].embeddingModel
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Dimensions overrides the known size of Model.
	Dimensions int
}

// IsConfigured reports whether the provider is known and has its key.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && (!e.Provider.RequiresAPIKey() || e.APIKey != "")
}

// VectorDimensions returns the configured size, else the known size of the
// model, else 0.
func (e EmbeddingSettings) VectorDimensions() int {
	if e.Dimensions > 0 {
		return e.Dimensions
	}
	return embeddingDimensions[e.Model]
}

// LLMSettings configures the completion provider.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string

	// APIKeys are rotated round-robin across requests.
	APIKeys []string

	// RequestsPerSecond limits outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// IsConfigured reports whether the provider is known and has at least one
// key when it needs one.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && (!l.Provider.RequiresAPIKey() || len(l.APIKeys) > 0)
}

// DefaultHeadingAnnotation is the marker prefixed to normalised heading lines.
const DefaultHeadingAnnotation = "<heading>"

// Postprocessor names.
const (
	ProcessorTOC     = "toc"
	ProcessorChunker = "chunker"
)

// DefaultChunkSize is the section length, in runes, above which the chunker
// splits.
const DefaultChunkSize = 4000

// PipelineConfig lists the postprocessors to run, in order, with a free-form
// config map per processor.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns the config of processor name, or nil.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// Set records one config value for processor name.
func (c *PipelineConfig) Set(name, key string, value any) {
	if c.ProcessorConfigs == nil {
		c.ProcessorConfigs = make(map[string]map[string]any)
	}
	if c.ProcessorConfigs[name] == nil {
		c.ProcessorConfigs[name] = make(map[string]any)
	}
	c.ProcessorConfigs[name][key] = value
}

// DefaultPipelineConfig normalises headings into sections, then splits
// overlong sections.
func DefaultPipelineConfig() PipelineConfig {
	var cfg PipelineConfig
	cfg.Processors = []string{ProcessorTOC, ProcessorChunker}
	cfg.Set(ProcessorTOC, "annotation", DefaultHeadingAnnotation)
	cfg.Set(ProcessorChunker, "chunk_size", DefaultChunkSize)
	return cfg
}
