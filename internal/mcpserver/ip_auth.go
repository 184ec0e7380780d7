package mcpserver

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
)

// IPAuthMiddleware restricts the http transport to an allowlist of
// addresses and CIDR blocks
type IPAuthMiddleware struct {
	allowedIPs    []string
	allowedNets   []*net.IPNet
	trustedNets   []*net.IPNet
	enableLogging bool
}

// NewIPAuthMiddleware creates a new IP authentication middleware.
// Forwarding headers are honoured only for connections from trustedProxies;
// with no trusted proxies the connection address is the client address.
func NewIPAuthMiddleware(allowedIPs, trustedProxies []string, enableLogging bool) (*IPAuthMiddleware, error) {
	allowedNets, err := parseNetworks(allowedIPs)
	if err != nil {
		return nil, err
	}
	if len(allowedNets) == 0 {
		return nil, fmt.Errorf("no allowed IPs specified")
	}

	trustedNets, err := parseNetworks(trustedProxies)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxy: %w", err)
	}

	middleware := &IPAuthMiddleware{
		allowedIPs:    allowedIPs,
		allowedNets:   allowedNets,
		trustedNets:   trustedNets,
		enableLogging: enableLogging,
	}

	if middleware.enableLogging {
		log.Printf("IP Auth Middleware initialized with %d allowed IP ranges", len(middleware.allowedNets))
	}

	return middleware, nil
}

// Middleware returns the HTTP middleware function
func (m *IPAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r, m.trustedNets)

		if !m.IsIPAllowed(clientIP) {
			if m.enableLogging {
				log.Printf("Access denied for IP: %s (Path: %s, Method: %s, User-Agent: %s)",
					clientIP, r.URL.Path, r.Method, r.Header.Get("User-Agent"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			if _, err := w.Write([]byte(`{"error": {"code": -32603, "message": "Access denied: IP not authorized"}}`)); err != nil {
				log.Printf("Failed to write error response: %v", err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), clientIPContextKey, clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsIPAllowed reports whether ipStr falls in one of the allowed ranges
func (m *IPAuthMiddleware) IsIPAllowed(ipStr string) bool {
	return containsIP(m.allowedNets, ipStr)
}

// AllowedIPs returns the configured allowlist
func (m *IPAuthMiddleware) AllowedIPs() []string {
	return m.allowedIPs
}

// extractClientIP returns the connection address unless it belongs to a
// trusted proxy. Behind a trusted proxy the X-Forwarded-For chain is walked
// from the right and the first untrusted hop is the client; X-Real-IP is
// used when no X-Forwarded-For is present.
func extractClientIP(r *http.Request, trustedNets []*net.IPNet) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	if len(trustedNets) == 0 || !containsIP(trustedNets, directIP) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !containsIP(trustedNets, hop) {
				return hop
			}
		}
		// every hop is a proxy we trust
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	return directIP
}

func containsIP(networks []*net.IPNet, ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range networks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseNetworks(entries []string) ([]*net.IPNet, error) {
	networks := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		network, err := parseCIDROrIP(entry)
		if err != nil {
			return nil, err
		}
		networks = append(networks, network)
	}
	return networks, nil
}

func parseCIDROrIP(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, network, err := net.ParseCIDR(s)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR block %s: %w", s, err)
		}
		return network, nil
	}

	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", s)
	}
	bits := 128
	if ip.To4() != nil {
		ip = ip.To4()
		bits = 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}
