package lectern

import "time"

// GarbageWeights tunes the encoding resolver's corruption score.
// The defaults are empirical.
type GarbageWeights struct {
	// Replacement is added per replacement, control or private-use rune.
	Replacement int `yaml:"replacement" json:"replacement"`

	// ForeignRun is added per run of more than two unexpected high runes.
	ForeignRun int `yaml:"foreignRun" json:"foreignRun"`

	// MissingPunctuation is added once when ideographs appear without
	// any CJK punctuation.
	MissingPunctuation int `yaml:"missingPunctuation" json:"missingPunctuation"`
}

// DefaultGarbageWeights returns the default score weights (10/5/50).
func DefaultGarbageWeights() GarbageWeights {
	return GarbageWeights{
		Replacement:        10,
		ForeignRun:         5,
		MissingPunctuation: 50,
	}
}

// Config holds the settings supplied by the configuration collaborator.
type Config struct {
	CacheEnabled       bool           `yaml:"cacheEnabled" json:"cacheEnabled"`
	CacheDir           string         `yaml:"cacheDir" json:"cacheDir"`
	MaxCacheSizeMB     int            `yaml:"maxCacheSizeMB" json:"maxCacheSizeMB"`
	MaxCacheAgeDays    int            `yaml:"maxCacheAgeDays" json:"maxCacheAgeDays"`
	MinFreeSpaceMB     int            `yaml:"minFreeSpaceMB" json:"minFreeSpaceMB"`
	MemoryCacheEntries int            `yaml:"memoryCacheEntries" json:"memoryCacheEntries"`
	MaxRetries         int            `yaml:"maxRetries" json:"maxRetries"`
	RetryBaseDelayMs   int            `yaml:"retryBaseDelayMs" json:"retryBaseDelayMs"`
	RetryMaxDelayMs    int            `yaml:"retryMaxDelayMs" json:"retryMaxDelayMs"`
	FetchTimeoutMs     int            `yaml:"fetchTimeoutMs" json:"fetchTimeoutMs"`
	FetchConcurrency   int            `yaml:"fetchConcurrency" json:"fetchConcurrency"`
	RequestsPerSecond  float64        `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	UserAgent          string         `yaml:"userAgent" json:"userAgent"`
	RespectRobots      bool           `yaml:"respectRobots" json:"respectRobots"`
	RobotsCacheTTLMin  int            `yaml:"robotsCacheTTLMinutes" json:"robotsCacheTTLMinutes"`
	GarbageWeights     GarbageWeights `yaml:"garbageWeights" json:"garbageWeights"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() Config {
	return Config{
		CacheEnabled:       true,
		MaxCacheSizeMB:     200,
		MaxCacheAgeDays:    7,
		MinFreeSpaceMB:     100,
		MemoryCacheEntries: 256,
		MaxRetries:         3,
		RetryBaseDelayMs:   1000,
		RetryMaxDelayMs:    30000,
		FetchTimeoutMs:     15000,
		RequestsPerSecond:  2,
		RespectRobots:      true,
		RobotsCacheTTLMin:  30,
		GarbageWeights:     DefaultGarbageWeights(),
	}
}

// Validate returns an error if the configuration contains invalid fields.
func (c *Config) Validate() error {
	if c.MaxCacheSizeMB < 0 {
		return Errorf(EINVALID, "maxCacheSizeMB must not be negative")
	}
	if c.MaxCacheAgeDays < 0 {
		return Errorf(EINVALID, "maxCacheAgeDays must not be negative")
	}
	if c.MinFreeSpaceMB < 0 {
		return Errorf(EINVALID, "minFreeSpaceMB must not be negative")
	}
	if c.MaxRetries < 1 {
		return Errorf(EINVALID, "maxRetries must be at least 1")
	}
	if c.RetryBaseDelayMs < 0 || c.RetryMaxDelayMs < 0 {
		return Errorf(EINVALID, "retry delays must not be negative")
	}
	if c.RetryMaxDelayMs > 0 && c.RetryMaxDelayMs < c.RetryBaseDelayMs {
		return Errorf(EINVALID, "retryMaxDelayMs must not be below retryBaseDelayMs")
	}
	if c.FetchTimeoutMs <= 0 {
		return Errorf(EINVALID, "fetchTimeoutMs must be positive")
	}
	if c.FetchConcurrency < 0 {
		return Errorf(EINVALID, "fetchConcurrency must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return Errorf(EINVALID, "requestsPerSecond must not be negative")
	}
	if c.RobotsCacheTTLMin < 0 {
		return Errorf(EINVALID, "robotsCacheTTLMinutes must not be negative")
	}
	if c.CacheEnabled && c.CacheDir == "" {
		return Errorf(EINVALID, "cacheDir required when cache is enabled")
	}
	return nil
}

// MaxCacheAge returns the cache TTL. Zero days means entries never expire.
func (c *Config) MaxCacheAge() time.Duration {
	return time.Duration(c.MaxCacheAgeDays) * 24 * time.Hour
}

// MaxCacheBytes returns the cache size cap in bytes. Zero means unlimited.
func (c *Config) MaxCacheBytes() int64 {
	return int64(c.MaxCacheSizeMB) << 20
}

// MinFreeBytes returns the free disk space floor in bytes.
func (c *Config) MinFreeBytes() uint64 {
	return uint64(c.MinFreeSpaceMB) << 20
}

// RetryBaseDelay returns the first retry delay.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

// RetryMaxDelay returns the retry delay cap.
func (c *Config) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

// FetchTimeout returns the per-attempt wall-clock timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutMs) * time.Millisecond
}

// RobotsCacheTTL returns how long robots.txt rules are cached per host.
func (c *Config) RobotsCacheTTL() time.Duration {
	return time.Duration(c.RobotsCacheTTLMin) * time.Minute
}
