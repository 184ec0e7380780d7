package mcpserver

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPAuthMiddleware_IsIPAllowed(t *testing.T) {
	m, err := NewIPAuthMiddleware([]string{"127.0.0.1", "::1", "192.168.0.0/16"}, nil, false)
	require.NoError(t, err)

	tests := []struct {
		ip   string
		want bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.44.2", true},
		{"10.0.0.1", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.IsIPAllowed(tt.ip), "ip %q", tt.ip)
	}
}

func TestNewIPAuthMiddleware_Errors(t *testing.T) {
	_, err := NewIPAuthMiddleware(nil, nil, false)
	assert.Error(t, err)

	_, err = NewIPAuthMiddleware([]string{" ", ""}, nil, false)
	assert.Error(t, err)

	_, err = NewIPAuthMiddleware([]string{"10.0.0.0/33"}, nil, false)
	assert.Error(t, err)

	_, err = NewIPAuthMiddleware([]string{"10.0.0.0/8"}, []string{"proxy.local"}, false)
	assert.ErrorContains(t, err, "trusted proxy")
}

func TestExtractClientIP(t *testing.T) {
	trusted, err := parseNetworks([]string{"10.0.0.0/24", "172.16.0.1"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xRealIP    string
		trusted    []*net.IPNet
		want       string
	}{
		{
			name:       "connection address without proxies",
			remoteAddr: "10.0.0.9:5555",
			want:       "10.0.0.9",
		},
		{
			name:       "headers ignored when no proxy is trusted",
			remoteAddr: "192.168.1.5:4000",
			xff:        "10.0.0.1",
			xRealIP:    "10.0.0.2",
			want:       "192.168.1.5",
		},
		{
			name:       "headers ignored from an untrusted peer",
			remoteAddr: "192.168.1.5:4000",
			xff:        "10.0.0.1",
			trusted:    trusted,
			want:       "192.168.1.5",
		},
		{
			name:       "rightmost untrusted hop behind a trusted proxy",
			remoteAddr: "10.0.0.3:4000",
			xff:        "198.51.100.1, 203.0.113.7, 172.16.0.1",
			trusted:    trusted,
			want:       "203.0.113.7",
		},
		{
			name:       "all hops trusted falls back to the first",
			remoteAddr: "10.0.0.3:4000",
			xff:        "10.0.0.8, 172.16.0.1",
			trusted:    trusted,
			want:       "10.0.0.8",
		},
		{
			name:       "x-real-ip behind a trusted proxy",
			remoteAddr: "10.0.0.3:4000",
			xRealIP:    " 203.0.113.9 ",
			trusted:    trusted,
			want:       "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			assert.Equal(t, tt.want, extractClientIP(req, tt.trusted))
		})
	}
}

func TestIPAuthMiddleware_RejectsForgedForwardedFor(t *testing.T) {
	m, err := NewIPAuthMiddleware([]string{"10.0.0.0/8"}, nil, false)
	require.NoError(t, err)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.168.1.5:4000"
	req.Header.Set("X-Forwarded-For", "10.0.0.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIPAuthMiddleware_StoresClientIP(t *testing.T) {
	m, err := NewIPAuthMiddleware([]string{"10.0.0.0/8"}, nil, false)
	require.NoError(t, err)

	var seen string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getClientIPFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.RemoteAddr = "10.9.8.7:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.9.8.7", seen)
}
