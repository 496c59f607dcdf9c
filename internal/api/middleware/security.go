package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets browser security headers on every response. The dev
// flag relaxes the CSP for hot reloading and skips HSTS so plain-HTTP local
// setups keep working.
func SecurityHeaders(dev bool) gin.HandlerFunc {
	csp := buildCSP(dev)
	permissions := buildPermissionsPolicy()

	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", csp)
		if !dev {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", permissions)
		c.Header("Cross-Origin-Opener-Policy", "same-origin")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")
		c.Next()
	}
}

func buildCSP(dev bool) string {
	scriptSrc := "'self'"
	connectSrc := "'self'"
	if dev {
		// Vite dev server needs eval and websockets for HMR.
		scriptSrc = "'self' 'unsafe-inline' 'unsafe-eval'"
		connectSrc = "'self' ws: wss:"
	}

	directives := []string{
		"default-src 'self'",
		"script-src " + scriptSrc,
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data: https:",
		"font-src 'self' data:",
		"connect-src " + connectSrc,
		"frame-src 'none'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

func buildPermissionsPolicy() string {
	disabled := []string{
		"accelerometer=()",
		"camera=()",
		"geolocation=()",
		"microphone=()",
		"payment=()",
		"usb=()",
	}
	return strings.Join(disabled, ", ")
}
