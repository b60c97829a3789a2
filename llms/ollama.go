package llms

import "net/http"

// NewOllamaAdapter builds an OpenAI-compatible adapter pointed at a local or
// remote Ollama gateway. Ollama does not require an API key, but per the
// source behavior this runtime still sends an empty `Authorization: Bearer `
// header for compatibility with gateways that expect the header to be
// present; set APIKey to enable it for gateways that do require one.
func NewOllamaAdapter(baseURL, model, apiKey string, client *http.Client) *OpenAIChatAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return NewOpenAIChatAdapter(OpenAIChatConfig{
		ProviderLabel:  "ollama",
		EnvVarName:     "OLLAMA_API_KEY",
		BaseURL:        baseURL,
		ChatPath:       "/chat/completions",
		Model:          model,
		RequiresAPIKey: false,
		APIKey:         apiKey,
		HTTPClient:     client,
	})
}
