package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/ca-srg/bravesearch/internal/types"
	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

// Type alias for Config
type Config = types.Config

// defaultAllowedIPs is used when IP authentication is enabled without an explicit list
var defaultAllowedIPs = []string{"127.0.0.1", "::1"}

// Load loads configuration from an optional .env file and environment variables.
// A missing BRAVE_API_KEY is reported as an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	config.MCPAllowedIPs = splitList(config.MCPAllowedIPsStr)
	if len(config.MCPAllowedIPs) == 0 {
		config.MCPAllowedIPs = append([]string(nil), defaultAllowedIPs...)
	}
	config.MCPTrustedProxies = splitList(config.MCPTrustedProxiesStr)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// splitList parses a comma-separated list, dropping blank entries
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate re-checks a configuration after callers changed it, for example
// with command-line overrides
func Validate(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.BraveAPIKey) == "" {
		return fmt.Errorf("BRAVE_API_KEY environment variable required")
	}

	if err := validateBraveConfig(config); err != nil {
		return fmt.Errorf("Brave Search configuration validation failed: %w", err)
	}

	// Rate budgets below one would reject every call
	if config.RateLimitPerSecond < 1 {
		config.RateLimitPerSecond = 1
	}
	if config.RateLimitPerMonth < 1 {
		config.RateLimitPerMonth = 1
	}

	if err := validateMCPConfig(config); err != nil {
		return fmt.Errorf("MCP server configuration validation failed: %w", err)
	}

	return nil
}

// validateBraveConfig validates the provider endpoint settings
func validateBraveConfig(config *Config) error {
	config.BraveAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.BraveAPIBaseURL), "/")

	parsedURL, err := url.Parse(config.BraveAPIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid BRAVE_API_BASE_URL URL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("BRAVE_API_BASE_URL scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("BRAVE_API_BASE_URL must include a valid host")
	}

	if config.BraveHTTPTimeout <= 0 {
		return fmt.Errorf("BRAVE_HTTP_TIMEOUT must be greater than 0")
	}

	if strings.TrimSpace(config.BraveSearchLang) == "" {
		config.BraveSearchLang = "en"
	}

	return nil
}

// validateMCPConfig validates MCP server-specific configuration
func validateMCPConfig(config *Config) error {
	config.MCPTransport = strings.ToLower(strings.TrimSpace(config.MCPTransport))
	switch config.MCPTransport {
	case types.TransportStdio, types.TransportHTTP:
	default:
		return fmt.Errorf("MCP_TRANSPORT must be %q or %q, got %q", types.TransportStdio, types.TransportHTTP, config.MCPTransport)
	}

	if config.MCPServerPort < 1 || config.MCPServerPort > 65535 {
		return fmt.Errorf("MCP_SERVER_PORT must be between 1 and 65535")
	}

	if config.MCPServerHost == "" {
		return fmt.Errorf("MCP_SERVER_HOST cannot be empty")
	}
	if net.ParseIP(config.MCPServerHost) == nil && !isValidHostname(config.MCPServerHost) {
		return fmt.Errorf("MCP_SERVER_HOST must be a valid IP address or hostname: %s", config.MCPServerHost)
	}

	if config.MCPServerReadTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_READ_TIMEOUT must be greater than 0")
	}
	if config.MCPServerWriteTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if config.MCPServerIdleTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_IDLE_TIMEOUT must be greater than 0")
	}
	if config.MCPServerShutdownTimeout <= 0 {
		return fmt.Errorf("MCP_SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}

	if config.MCPToolPrefix != "" && !isValidToolName(config.MCPToolPrefix) {
		return fmt.Errorf("MCP_TOOL_PREFIX may only contain letters, digits, '_' and '-'")
	}

	return nil
}

// isValidHostname validates hostname format
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}

	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '-' {
				return false
			}
		}
	}

	return true
}

// isValidToolName validates tool name characters
func isValidToolName(name string) bool {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}
