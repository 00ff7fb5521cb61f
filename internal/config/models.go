package config

// EngineConfig represents the scoring engine tunables
type EngineConfig struct {
	MaxWindowBytes int
	LockWait       string
}

// EmbeddingConfig represents the embedding provider selection
type EmbeddingConfig struct {
	Provider    string
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI embeddings
type OpenAIConfig struct {
	APIKey    string
	ModelName string
}

// GeminiConfig represents the configuration for Google Gemini embeddings
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// BedrockConfig represents the configuration for Amazon Bedrock embeddings
type BedrockConfig struct {
	Region  string
	ModelID string
}

// GetEngine returns the engine configuration
func (c *Config) GetEngine() EngineConfig {
	return EngineConfig{
		MaxWindowBytes: c.GetInt("engine.max_window_bytes"),
		LockWait:       c.GetString("engine.lock_wait"),
	}
}

// GetEmbedding returns the embedding provider configuration
func (c *Config) GetEmbedding() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:    c.GetString("embedding.provider"),
		MaxBodySize: c.GetInt("embedding.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		ModelName: c.GetString("openai.model_name"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}
