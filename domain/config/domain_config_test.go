package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDomainConfig(t *testing.T) {
	for _, env := range []string{"production", "development", "staging", ""} {
		t.Run(env, func(t *testing.T) {
			cfg := LoadDomainConfig(env)

			assert.NoError(t, cfg.Validate())
			assert.Equal(t, 10, cfg.MaxLinksPerType)
			assert.Equal(t, 5, cfg.DefaultSuggestionCount)
			assert.Equal(t, 20, cfg.MaxSuggestionCount)
		})
	}
}

func TestDomainConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DomainConfig)
	}{
		{name: "zero cardinality", mutate: func(c *DomainConfig) { c.MaxLinksPerType = 0 }},
		{name: "inverted suggestion range", mutate: func(c *DomainConfig) { c.MaxSuggestionCount = 0 }},
		{name: "default above max", mutate: func(c *DomainConfig) { c.DefaultSuggestionCount = 50 }},
		{name: "negative traversal cap", mutate: func(c *DomainConfig) { c.MaxTraversalNodes = -1 }},
		{name: "no lock timeout", mutate: func(c *DomainConfig) { c.LockTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultDomainConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
