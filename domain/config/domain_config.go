package config

import (
	"fmt"
	"time"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Link constraints
	MaxLinksPerType int

	// Suggestion limits
	DefaultSuggestionCount int
	MinSuggestionCount     int
	MaxSuggestionCount     int

	// Cycle detection bound. Zero means unbounded.
	MaxTraversalNodes int

	// Per-source lock
	LockLease   time.Duration
	LockTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxLinksPerType: 10,

		DefaultSuggestionCount: 5,
		MinSuggestionCount:     1,
		MaxSuggestionCount:     20,

		MaxTraversalNodes: 100000,

		LockLease:   30 * time.Second,
		LockTimeout: 5 * time.Second,
	}
}

// ProductionDomainConfig returns configuration optimized for production
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.LockLease = 15 * time.Second
	cfg.LockTimeout = 3 * time.Second
	return cfg
}

// DevelopmentDomainConfig returns configuration for development
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.LockTimeout = 10 * time.Second
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxLinksPerType < 1 {
		return fmt.Errorf("max links per type must be positive, got %d", c.MaxLinksPerType)
	}
	if c.MinSuggestionCount < 1 || c.MaxSuggestionCount < c.MinSuggestionCount {
		return fmt.Errorf("invalid suggestion range %d..%d", c.MinSuggestionCount, c.MaxSuggestionCount)
	}
	if c.DefaultSuggestionCount < c.MinSuggestionCount || c.DefaultSuggestionCount > c.MaxSuggestionCount {
		return fmt.Errorf("default suggestion count %d outside %d..%d",
			c.DefaultSuggestionCount, c.MinSuggestionCount, c.MaxSuggestionCount)
	}
	if c.MaxTraversalNodes < 0 {
		return fmt.Errorf("max traversal nodes cannot be negative")
	}
	if c.LockLease <= 0 || c.LockTimeout <= 0 {
		return fmt.Errorf("lock lease and timeout must be positive")
	}
	return nil
}
