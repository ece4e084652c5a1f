package ratelimit

import "time"

// Rule limits one method and path. A path ending in "/" matches by prefix.
type Rule struct {
	Method    string
	Path      string
	PerMinute float64 // Sustained rate; zero or less means unlimited
	Burst     int     // Bucket capacity; defaults to 1
}

// Config holds rate limiting configuration.
type Config struct {
	Rules []Rule
	// CleanupInterval is how often idle client buckets are dropped. Zero disables cleanup.
	CleanupInterval time.Duration
	// IdleTTL is how long a bucket may go unused before cleanup removes it.
	IdleTTL time.Duration
}

// SubmitConfig limits POST /submit to perMinute submissions with the given burst.
func SubmitConfig(perMinute float64, burst int) *Config {
	return &Config{
		Rules:           []Rule{{Method: "POST", Path: "/submit", PerMinute: perMinute, Burst: burst}},
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         10 * time.Minute,
	}
}
