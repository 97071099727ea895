// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Matchmaking   MatchmakingConfig       `mapstructure:"matchmaking"`
	Retry         RetryConfig             `mapstructure:"retry"`
	Server        ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses     []string `mapstructure:"addresses"`
	Username      string   `mapstructure:"username"`
	Password      string   `mapstructure:"password"`
	ListingsIndex string   `mapstructure:"listings_index"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// NotificationConfig controls which channels the notification sink uses
// besides the in-app notification row, which is always written.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled           bool   `mapstructure:"enabled"`
		PriorityThreshold string `mapstructure:"priority_threshold"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MatchmakingConfig holds the tunables of the scoring and generation pipeline.
type MatchmakingConfig struct {
	AlgorithmVersion        string              `mapstructure:"algorithm_version"`
	Weights                 WeightsConfig       `mapstructure:"weights"`
	MinScore                int                 `mapstructure:"min_score"`
	DefaultLimit            int                 `mapstructure:"default_limit"`
	BuyerCandidateLimit     int                 `mapstructure:"buyer_candidate_limit"`
	SellerCandidateLimit    int                 `mapstructure:"seller_candidate_limit"`
	PriceCeilingBuffer      float64             `mapstructure:"price_ceiling_buffer"`
	RegenerationWindowHours int                 `mapstructure:"regeneration_window_hours"`
	ScoringConcurrency      int                 `mapstructure:"scoring_concurrency"`
	AllowReopen             bool                `mapstructure:"allow_reopen"`
	PermissiveTransitions   bool                `mapstructure:"permissive_transitions"`
	ListingSource           string              `mapstructure:"listing_source"`      // "postgres" or "elasticsearch"
	ProfileCacheTTL         int                 `mapstructure:"profile_cache_ttl"`   // milliseconds, 0 disables the cache
	GenerationLockTTL       int                 `mapstructure:"generation_lock_ttl"` // milliseconds
	MatchTTLDays            int                 `mapstructure:"match_ttl_days"`
	ReferenceData           ReferenceDataConfig `mapstructure:"reference_data"`
}

// WeightsConfig mirrors scoring.Weights. All zero means "use the defaults".
type WeightsConfig struct {
	BusinessType float64 `mapstructure:"business_type"`
	PriceRange   float64 `mapstructure:"price_range"`
	Location     float64 `mapstructure:"location"`
	Experience   float64 `mapstructure:"experience"`
	Timeline     float64 `mapstructure:"timeline"`
	Financing    float64 `mapstructure:"financing"`
	RevenueRange float64 `mapstructure:"revenue_range"`
}

// IsZero reports whether no weight was configured.
func (w WeightsConfig) IsZero() bool {
	return w == WeightsConfig{}
}

// ReferenceDataConfig overrides the built-in related-type and region tables.
type ReferenceDataConfig struct {
	RelatedTypes          map[string][]string `mapstructure:"related_types"`
	Regions               map[string][]string `mapstructure:"regions"`
	HighComplexityTypes   []string            `mapstructure:"high_complexity_types"`
	MediumComplexityTypes []string            `mapstructure:"medium_complexity_types"`
}

// RetryConfig bounds retries around store calls.
type RetryConfig struct {
	MaxRetries int `mapstructure:"max_retries"`
	BaseDelay  int `mapstructure:"base_delay"` // milliseconds
	MaxDelay   int `mapstructure:"max_delay"`  // milliseconds
}

// ServerConfig is the health/metrics listener of the worker manager.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}
