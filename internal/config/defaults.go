package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel = "info"
	DefaultJSONLog  = false

	DefaultBaseURL   = "https://www.marchespublics.gov.ma/bdc/entreprise/consultation/resultat"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

	DefaultFullMaxPage  = 17125
	DefaultDailyMaxPage = 100

	DefaultWorkers     = 10
	MaxWorkers         = 15
	DefaultMaxAttempts = 3

	DefaultFullTimeout  = 10 * time.Second
	DefaultDailyTimeout = 15 * time.Second

	DefaultMinDelay   = 400 * time.Millisecond
	DefaultMaxDelay   = 1200 * time.Millisecond
	DefaultMinBackoff = 1 * time.Second
	DefaultMaxBackoff = 2 * time.Second

	// Token bucket is off unless a positive rate is configured.
	DefaultRateLimitRPS   = 0.0
	DefaultRateLimitBurst = 1

	DefaultProxyCooldown = 5 * time.Minute

	DefaultDatasetPath     = "donnees_marches.json"
	DefaultFailedPagesPath = "pages_non_traitees.json"

	EnvPrefix = "MARCHES"
)
