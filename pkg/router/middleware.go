package router

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
)

// SecureHeadersConfig configures security headers.
type SecureHeadersConfig struct {
	// FrameOptions controls X-Frame-Options header.
	// Default: "DENY"
	FrameOptions string

	// ContentTypeNosniff enables X-Content-Type-Options: nosniff.
	ContentTypeNosniff bool

	// ReferrerPolicy sets the Referrer-Policy header.
	// Default: "strict-origin-when-cross-origin"
	ReferrerPolicy string

	// PermissionsPolicy sets the Permissions-Policy header.
	PermissionsPolicy string

	// HSTSEnabled enables Strict-Transport-Security header.
	// Only set when request is over HTTPS.
	HSTSEnabled bool

	// HSTSMaxAge is the max-age for HSTS in seconds.
	HSTSMaxAge int

	// FrameSources are the origins allowed in frame-src, for embedded
	// players.
	FrameSources []string

	// ContentSecurityPolicy overrides the generated CSP when set.
	ContentSecurityPolicy string
}

// DefaultSecureHeadersConfig returns secure default configuration.
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		FrameOptions:       "DENY",
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "geolocation=(), microphone=(), camera=()",
		HSTSEnabled:        true,
		HSTSMaxAge:         31536000, // 1 year
	}
}

// cspNonceKey is the context key for CSP nonce.
type cspNonceKey struct{}

// GetCSPNonce retrieves the CSP nonce from context.
func GetCSPNonce(ctx context.Context) string {
	if nonce, ok := ctx.Value(cspNonceKey{}).(string); ok {
		return nonce
	}
	return ""
}

// WithCSPNonce stores a nonce in ctx. Used by tests and by callers that
// render outside the middleware.
func WithCSPNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, cspNonceKey{}, nonce)
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// SecureHeaders middleware adds security headers with the default config.
func SecureHeaders() Middleware {
	return SecureHeadersWithConfig(DefaultSecureHeadersConfig())
}

// SecureHeadersWithConfig creates middleware with custom config. Every
// request gets a fresh CSP nonce, readable through GetCSPNonce.
func SecureHeadersWithConfig(config SecureHeadersConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			if config.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", config.PermissionsPolicy)
			}
			if config.HSTSEnabled && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(config.HSTSMaxAge)+"; includeSubDomains")
			}

			nonce := generateNonce()
			csp := config.ContentSecurityPolicy
			if csp == "" {
				csp = buildCSP(nonce, config.FrameSources)
			}
			h.Set("Content-Security-Policy", csp)

			next.ServeHTTP(w, r.WithContext(WithCSPNonce(r.Context(), nonce)))
		})
	}
}

func buildCSP(nonce string, frameSources []string) string {
	frames := "'none'"
	if len(frameSources) > 0 {
		frames = strings.Join(frameSources, " ")
	}
	return "default-src 'self'; " +
		"script-src 'self' 'nonce-" + nonce + "'; " +
		"style-src 'self' 'nonce-" + nonce + "'; " +
		"img-src 'self' data: https:; " +
		"connect-src 'self' ws: wss:; " +
		"font-src 'self'; " +
		"frame-src " + frames + "; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}
