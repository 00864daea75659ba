package server

import (
	"net/http"

	"github.com/abduss/filegate/internal/config"
	"github.com/abduss/filegate/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// corsPolicy applies the first matching rule of policy to each request.
// Preflight requests are answered here and never reach a route handler;
// paths without a rule get no CORS headers.
func corsPolicy(policy config.CORSPolicy) gin.HandlerFunc {
	handlers := make(map[string]*cors.Cors, len(policy.Rules))
	for _, rule := range policy.Rules {
		handlers[rule.Pattern] = cors.New(cors.Options{
			AllowedOrigins: rule.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", logger.CorrelationIDHeader},
			ExposedHeaders: []string{logger.CorrelationIDHeader},
			MaxAge:         300,
		})
	}

	return func(c *gin.Context) {
		rule, ok := policy.Match(c.Request.URL.EscapedPath())
		if !ok {
			c.Next()
			return
		}

		passed := false
		next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			passed = true
		})
		handlers[rule.Pattern].Handler(next).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}
