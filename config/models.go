package config

// Provider identifies an upstream completion API family. The set is closed:
// adding a provider means adding a constant here and extending every switch
// below, which the compiler will point at.
type Provider string

const (
	ProviderOpenAI      Provider = "openai"
	ProviderGemini      Provider = "gemini"
	ProviderClaude      Provider = "claude"
	ProviderHuggingFace Provider = "huggingface"
)

// DefaultProvider applies when neither the catalog entry nor the environment
// declares one.
const DefaultProvider = ProviderHuggingFace

func (p Provider) envAPIKey(cfg *Config) string {
	switch p {
	case ProviderOpenAI:
		return cfg.OpenAIAPIKey
	case ProviderGemini:
		return cfg.GeminiAPIKey
	case ProviderClaude:
		return cfg.ClaudeAPIKey
	case ProviderHuggingFace:
		return cfg.HuggingFaceAPIKey
	}
	return ""
}

func (p Provider) envBaseURL(cfg *Config) string {
	switch p {
	case ProviderOpenAI:
		return cfg.OpenAIBaseURL
	case ProviderGemini:
		return cfg.GeminiBaseURL
	case ProviderClaude:
		return cfg.ClaudeBaseURL
	case ProviderHuggingFace:
		return cfg.HuggingFaceBaseURL
	}
	return ""
}

func (p Provider) defaultBaseURL() string {
	switch p {
	case ProviderOpenAI:
		return "https://api.openai.com/v1"
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta/openai"
	case ProviderClaude:
		return ""
	case ProviderHuggingFace:
		return "https://router.huggingface.co/v1"
	}
	return ""
}

// Model describes one catalog entry. ID is the short identifier clients send;
// ModelID is what the upstream API expects.
type Model struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Provider    Provider `json:"provider"`
	ModelID     string   `json:"modelId"`
	Description string   `json:"description"`
	MaxTokens   int      `json:"maxTokens"`
	IsDefault   bool     `json:"isDefault,omitempty"`
}

// AvailableModels is the static model catalog.
var AvailableModels = []Model{
	{
		ID:          "deepseek-v3",
		Name:        "DeepSeek V3.2",
		Provider:    ProviderHuggingFace,
		ModelID:     "deepseek-ai/DeepSeek-V3.2",
		Description: "Fast and capable DeepSeek model",
		MaxTokens:   4096,
		IsDefault:   true,
	},
	{
		ID:          "qwen-72b",
		Name:        "Qwen 2.5 72B",
		Provider:    ProviderHuggingFace,
		ModelID:     "Qwen/Qwen2.5-72B-Instruct",
		Description: "High-end Alibaba model",
		MaxTokens:   4096,
	},
	{
		ID:          "llama-3-70b",
		Name:        "Llama 3.3 70B",
		Provider:    ProviderHuggingFace,
		ModelID:     "meta-llama/Llama-3.3-70B-Instruct",
		Description: "Latest generation Meta model",
		MaxTokens:   4096,
	},
	{
		ID:          "mistral-nemo",
		Name:        "Mistral Nemo",
		Provider:    ProviderHuggingFace,
		ModelID:     "mistralai/Mistral-Nemo-Instruct-2407",
		Description: "Compact and efficient Mistral model",
		MaxTokens:   4096,
	},
	{
		ID:          "phi-3-mini",
		Name:        "Phi-3 Mini",
		Provider:    ProviderHuggingFace,
		ModelID:     "microsoft/Phi-3-mini-4k-instruct",
		Description: "Small but capable Microsoft model",
		MaxTokens:   4096,
	},
	{
		ID:          "gemma-2-27b",
		Name:        "Gemma 2 27B",
		Provider:    ProviderHuggingFace,
		ModelID:     "google/gemma-2-27b-it",
		Description: "Open source Google model",
		MaxTokens:   4096,
	},
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Provider:    ProviderOpenAI,
		ModelID:     "gpt-4o",
		Description: "OpenAI's most capable model",
		MaxTokens:   4096,
	},
	{
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Provider:    ProviderOpenAI,
		ModelID:     "gpt-4o-mini",
		Description: "Fast and economical OpenAI model",
		MaxTokens:   4096,
	},
	{
		ID:          "gemini-2.0-flash",
		Name:        "Gemini 2.0 Flash",
		Provider:    ProviderGemini,
		ModelID:     "gemini-2.0-flash",
		Description: "Ultra-fast Google model",
		MaxTokens:   4096,
	},
	{
		ID:          "gemini-1.5-pro",
		Name:        "Gemini 1.5 Pro",
		Provider:    ProviderGemini,
		ModelID:     "gemini-1.5-pro",
		Description: "High-end Google model",
		MaxTokens:   8192,
	},
	{
		ID:          "claude-3-5-sonnet",
		Name:        "Claude 3.5 Sonnet",
		Provider:    ProviderClaude,
		ModelID:     "claude-3.5-sonnet-latest",
		Description: "Anthropic's most capable model",
		MaxTokens:   4096,
	},
}

// GetModelByID looks up a catalog entry by its short id.
func GetModelByID(id string) *Model {
	for i := range AvailableModels {
		if AvailableModels[i].ID == id {
			return &AvailableModels[i]
		}
	}
	return nil
}

// FindModel matches either the short id or the upstream model id.
func FindModel(input string) *Model {
	for i := range AvailableModels {
		if AvailableModels[i].ID == input || AvailableModels[i].ModelID == input {
			return &AvailableModels[i]
		}
	}
	return nil
}

// GetDefaultModel returns the catalog's designated default entry.
func GetDefaultModel() *Model {
	for i := range AvailableModels {
		if AvailableModels[i].IsDefault {
			return &AvailableModels[i]
		}
	}
	return &AvailableModels[0]
}
