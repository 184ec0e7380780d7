package types

import "time"

// Config represents the bravesearch configuration resolved from the environment
type Config struct {
	// Brave Search provider configuration
	BraveAPIKey      string        `json:"-" env:"BRAVE_API_KEY,required=true"`
	BraveAPIBaseURL  string        `json:"brave_api_base_url" env:"BRAVE_API_BASE_URL,default=https://api.search.brave.com/res/v1"`
	BraveHTTPTimeout time.Duration `json:"brave_http_timeout" env:"BRAVE_HTTP_TIMEOUT,default=30s"`
	BraveSearchLang  string        `json:"brave_search_lang" env:"BRAVE_SEARCH_LANG,default=en"`

	// Rate limiting. The monthly budget is a ceiling for the process lifetime.
	RateLimitPerSecond int `json:"rate_limit_per_second" env:"BRAVE_RATE_LIMIT_PER_SECOND,default=1"`
	RateLimitPerMonth  int `json:"rate_limit_per_month" env:"BRAVE_RATE_LIMIT_PER_MONTH,default=2000"`

	// MCP server configuration
	MCPTransport                 string        `json:"mcp_transport" env:"MCP_TRANSPORT,default=stdio"`
	MCPServerHost                string        `json:"mcp_server_host" env:"MCP_SERVER_HOST,default=localhost"`
	MCPServerPort                int           `json:"mcp_server_port" env:"MCP_SERVER_PORT,default=8080"`
	MCPServerReadTimeout         time.Duration `json:"mcp_server_read_timeout" env:"MCP_SERVER_READ_TIMEOUT,default=30s"`
	MCPServerWriteTimeout        time.Duration `json:"mcp_server_write_timeout" env:"MCP_SERVER_WRITE_TIMEOUT,default=60s"`
	MCPServerIdleTimeout         time.Duration `json:"mcp_server_idle_timeout" env:"MCP_SERVER_IDLE_TIMEOUT,default=120s"`
	MCPServerShutdownTimeout     time.Duration `json:"mcp_server_shutdown_timeout" env:"MCP_SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	MCPServerEnableAccessLogging bool          `json:"mcp_server_enable_access_logging" env:"MCP_SERVER_ENABLE_ACCESS_LOG,default=true"`
	MCPToolPrefix                string        `json:"mcp_tool_prefix" env:"MCP_TOOL_PREFIX"`

	// IP allowlist for the http transport; an empty MCP_ALLOWED_IPS means localhost only
	MCPIPAuthEnabled bool     `json:"mcp_ip_auth_enabled" env:"MCP_IP_AUTH_ENABLED,default=false"`
	MCPAllowedIPsStr string   `json:"-" env:"MCP_ALLOWED_IPS"`
	MCPAllowedIPs    []string `json:"mcp_allowed_ips"`

	// Proxies whose X-Forwarded-For / X-Real-IP headers are believed. Empty
	// means the connection address is always the client address.
	MCPTrustedProxiesStr string   `json:"-" env:"MCP_TRUSTED_PROXIES"`
	MCPTrustedProxies    []string `json:"mcp_trusted_proxies"`

	// OpenTelemetry configuration
	OTelEnabled              bool    `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string  `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=bravesearch"`
	OTelExporterOTLPEndpoint string  `json:"otel_exporter_otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelExporterOTLPProtocol string  `json:"otel_exporter_otlp_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelResourceAttributes   string  `json:"otel_resource_attributes" env:"OTEL_RESOURCE_ATTRIBUTES"`
	OTelTracesSampler        string  `json:"otel_traces_sampler" env:"OTEL_TRACES_SAMPLER,default=always_on"`
	OTelTracesSamplerArg     float64 `json:"otel_traces_sampler_arg" env:"OTEL_TRACES_SAMPLER_ARG,default=1.0"`
}

// MCP transports supported by the server
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)
