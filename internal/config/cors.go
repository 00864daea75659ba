package config

import "path"

// CORSRule allows the listed origins on every request path matching Pattern.
// Pattern uses path.Match syntax.
type CORSRule struct {
	Pattern        string
	AllowedOrigins []string
}

// CORSPolicy is the ordered cross-origin configuration for the gateway.
// The first matching rule wins.
type CORSPolicy struct {
	Rules []CORSRule
}

// DefaultCORSPolicy enumerates the public routes with the given origins.
func DefaultCORSPolicy(origins []string) CORSPolicy {
	patterns := []string{"/upload", "/aws-config", "/files", "/delete/*"}
	rules := make([]CORSRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, CORSRule{
			Pattern:        p,
			AllowedOrigins: append([]string(nil), origins...),
		})
	}
	return CORSPolicy{Rules: rules}
}

// Match returns the first rule whose pattern matches the request path.
func (p CORSPolicy) Match(requestPath string) (CORSRule, bool) {
	for _, rule := range p.Rules {
		if ok, err := path.Match(rule.Pattern, requestPath); err == nil && ok {
			return rule, true
		}
	}
	return CORSRule{}, false
}
