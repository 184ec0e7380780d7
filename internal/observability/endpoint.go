package observability

import (
	"fmt"
	"net/url"
	"strings"
)

type signal string

const (
	signalTraces  signal = "traces"
	signalMetrics signal = "metrics"
)

// exporterEndpoint is an OTLP target in the form each protocol expects:
// a full URL for http/protobuf, host:port for grpc
type exporterEndpoint struct {
	URL      string
	HostPort string
	Insecure bool
}

func resolveEndpoint(raw, protocol string, sig signal) (exporterEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return exporterEndpoint{}, fmt.Errorf("endpoint cannot be empty")
	}

	switch protocol {
	case protocolHTTP:
		return resolveHTTPEndpoint(raw, sig)
	case protocolGRPC:
		return resolveGRPCEndpoint(raw)
	default:
		return exporterEndpoint{}, fmt.Errorf("unsupported protocol %q", protocol)
	}
}

// resolveHTTPEndpoint appends /v1/<signal> unless the path already ends
// with it. Query strings are kept.
func resolveHTTPEndpoint(raw string, sig signal) (exporterEndpoint, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return exporterEndpoint{}, fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return exporterEndpoint{}, fmt.Errorf("endpoint must use http or https with http/protobuf")
	}
	if parsed.Host == "" {
		return exporterEndpoint{}, fmt.Errorf("endpoint must include a host")
	}

	suffix := "/v1/" + string(sig)
	path := strings.TrimSuffix(parsed.Path, "/")
	if !strings.HasSuffix(path, suffix) {
		path += suffix
	}
	parsed.Path = path

	return exporterEndpoint{
		URL:      parsed.String(),
		HostPort: parsed.Host,
		Insecure: parsed.Scheme == "http",
	}, nil
}

// resolveGRPCEndpoint accepts host:port (insecure) or a URL whose scheme
// selects TLS
func resolveGRPCEndpoint(raw string) (exporterEndpoint, error) {
	if !strings.Contains(raw, "://") {
		if !strings.Contains(raw, ":") {
			return exporterEndpoint{}, fmt.Errorf("grpc endpoint should be host:port")
		}
		return exporterEndpoint{HostPort: raw, Insecure: true}, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return exporterEndpoint{}, fmt.Errorf("parse endpoint: %w", err)
	}
	if parsed.Host == "" {
		return exporterEndpoint{}, fmt.Errorf("endpoint must include a host")
	}

	var insecure bool
	switch parsed.Scheme {
	case "http", "grpc":
		insecure = true
	case "https", "grpcs":
	default:
		return exporterEndpoint{}, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	return exporterEndpoint{HostPort: parsed.Host, Insecure: insecure}, nil
}
