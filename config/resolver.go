package config

import "strings"

// AIConfig is the per-request upstream configuration. An empty APIKey means
// no usable credential was found anywhere.
type AIConfig struct {
	APIKey   string
	BaseURL  string
	Provider Provider
	ModelID  string
}

// ResolveAIConfig computes the upstream endpoint, credential and model for a
// request. Unknown model ids fall back to the catalog default instead of
// erroring. Key priority: caller-supplied, then the provider's environment
// key. Base URL priority: provider environment override, then the provider
// default, with AI_BASE_URL winning over both. Pure function of its inputs.
func ResolveAIConfig(cfg *Config, modelID, userAPIKey string) AIConfig {
	model := GetModelByID(modelID)
	if model == nil {
		model = GetDefaultModel()
	}

	provider := model.Provider
	if provider == "" {
		provider = Provider(cfg.AIProvider)
	}
	if provider == "" {
		provider = DefaultProvider
	}

	apiKey := userAPIKey
	if apiKey == "" {
		apiKey = provider.envAPIKey(cfg)
	}

	baseURL := provider.envBaseURL(cfg)
	if baseURL == "" {
		baseURL = provider.defaultBaseURL()
	}
	if cfg.AIBaseURL != "" {
		baseURL = cfg.AIBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	resolved := model.ModelID
	if resolved == "" {
		resolved = modelID
	}

	return AIConfig{
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Provider: provider,
		ModelID:  resolved,
	}
}
