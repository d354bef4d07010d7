package config

import "time"

// ProviderConfig carries the resolved values a provider client needs.
// The core never reads environment variables; these are injected.
type ProviderConfig struct {
	APIKey         string
	Model          string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	MaxBodySize    int
	RequestTimeout time.Duration
}

// ServerConfig represents the HTTP transport configuration.
type ServerConfig struct {
	ListenAddress  string
	CORSOrigins    []string
	MaxUploadBytes int64
}

// SMTPConfig represents the optional SMTP gateway configuration.
type SMTPConfig struct {
	Enabled       bool
	ListenAddress string
	UpstreamAddr  string
	UpstreamPort  int
}

// GetDefaultProvider returns the configured default AI provider.
func (c *Config) GetDefaultProvider() string {
	return c.GetString("ai.provider")
}

// GetOpenAI returns the OpenAI provider configuration.
func (c *Config) GetOpenAI() ProviderConfig {
	return c.providerConfig("openai")
}

// GetGemini returns the Gemini provider configuration.
func (c *Config) GetGemini() ProviderConfig {
	return c.providerConfig("gemini")
}

func (c *Config) providerConfig(section string) ProviderConfig {
	timeout, err := c.GetDuration(section + ".request_timeout")
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return ProviderConfig{
		APIKey:         c.GetString(section + ".api_key"),
		Model:          c.GetString(section + ".model"),
		FallbackModels: c.GetStringSlice(section + ".fallback_models"),
		MaxTokens:      c.GetInt(section + ".max_tokens"),
		Temperature:    float32(c.GetFloat64(section + ".temperature")),
		MaxBodySize:    c.GetInt(section + ".max_body_size"),
		RequestTimeout: timeout,
	}
}

// GetServer returns the HTTP server configuration.
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:  c.GetString("server.listen_address"),
		CORSOrigins:    c.GetStringSlice("server.cors_origins"),
		MaxUploadBytes: c.GetInt64("server.max_upload_bytes"),
	}
}

// GetSMTP returns the SMTP gateway configuration.
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Enabled:       c.GetBool("smtp.enabled"),
		ListenAddress: c.GetString("smtp.listen_address"),
		UpstreamAddr:  c.GetString("smtp.upstream_addr"),
		UpstreamPort:  c.GetInt("smtp.upstream_port"),
	}
}
