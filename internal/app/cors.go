package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/quillpost/core/internal/config"
)

func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Idempotence", "X-Request-Id"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-Id", "X-Backup-Location"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		patterns := cfg.AllowedOrigins
		c.AllowOriginFunc = func(origin string) bool {
			host := extractOriginHost(origin)
			for _, pattern := range patterns {
				if matchOriginPattern(pattern, host) {
					return true
				}
			}
			return false
		}
	} else {
		c.AllowOriginFunc = func(origin string) bool { return true }
	}
	return c
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern reports whether host matches the given wildcard pattern.
// Patterns may be full origins ("https://blog.example.com"), bare hosts,
// "*.example.com" or "localhost:*".
func matchOriginPattern(pattern, host string) bool {
	pattern = extractOriginHost(pattern)
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
