// Package security sets response headers for the JSON API and resolves
// client addresses behind proxies.
package security

import (
	"fmt"
	"net/http"
)

type HeadersConfig struct {
	CSP               string
	HSTSMaxAge        int
	XFrameOptions     string
	ReferrerPolicy    string
	CrossOriginPolicy string
	// CacheControl applies to API responses only.
	CacheControl string
}

// DefaultHeadersConfig suits a JSON API that never serves documents.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:               "default-src 'none'; frame-ancestors 'none'",
		HSTSMaxAge:        31536000,
		XFrameOptions:     "DENY",
		ReferrerPolicy:    "no-referrer",
		CrossOriginPolicy: "same-origin",
		CacheControl:      "no-store",
	}
}

// Headers returns middleware applying cfg to every response.
func Headers(cfg HeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.XFrameOptions != "" {
				h.Set("X-Frame-Options", cfg.XFrameOptions)
			}
			if cfg.CSP != "" {
				h.Set("Content-Security-Policy", cfg.CSP)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.CrossOriginPolicy != "" {
				h.Set("Cross-Origin-Resource-Policy", cfg.CrossOriginPolicy)
			}
			if cfg.CacheControl != "" {
				h.Set("Cache-Control", cfg.CacheControl)
			}
			if r.TLS != nil && cfg.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
