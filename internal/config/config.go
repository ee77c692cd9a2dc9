package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Valuation   ValuationConfig   `mapstructure:"valuation"`
	Confidence  ConfidenceConfig  `mapstructure:"confidence"`
	Risk        RiskConfig        `mapstructure:"risk"`
	Opportunity OpportunityConfig `mapstructure:"opportunity"`
	Scan        ScanConfig        `mapstructure:"scan"`
	Alert       AlertConfig       `mapstructure:"alert"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// CronConfig is the scan scheduler policy's cadence table. The cron runner
// executes it; the engine itself keeps no implicit timers.
type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	PriceRefresh string `mapstructure:"price_refresh"`
	Analysis     string `mapstructure:"analysis"`
	ExpirySweep  string `mapstructure:"expiry_sweep"`
}

type ValuationConfig struct {
	// RecencyWindow bounds how old an observation may be and still
	// contribute to a current-price snapshot.
	RecencyWindow time.Duration `mapstructure:"recency_window"`
	// FeeRate discounts singles value for marketplace/payment/shipping fees.
	FeeRate float64 `mapstructure:"fee_rate"`
	// ProbabilityTolerance allows per-tier pull probabilities to sum
	// slightly above 1 before the mapping set is flagged inconsistent.
	ProbabilityTolerance float64 `mapstructure:"probability_tolerance"`
}

type ConfidenceConfig struct {
	Weights ConfidenceWeights `mapstructure:"weights"`

	// StabilityCVCeiling is the coefficient of variation that maps to zero
	// price-stability confidence.
	StabilityCVCeiling float64 `mapstructure:"stability_cv_ceiling"`
	// SellerPeak is the seller count at which the liquidity curve peaks.
	SellerPeak int `mapstructure:"seller_peak"`

	// Margin plausibility band: full confidence inside
	// [MarginBandFloorPct, MarginBandCeilingPct], exponential falloff above
	// the ceiling with half-life MarginDecayPct.
	MarginBandFloorPct   float64 `mapstructure:"margin_band_floor_pct"`
	MarginBandCeilingPct float64 `mapstructure:"margin_band_ceiling_pct"`
	MarginDecayPct       float64 `mapstructure:"margin_decay_pct"`
}

type ConfidenceWeights struct {
	PriceStability    float64 `mapstructure:"price_stability"`
	SellerCount       float64 `mapstructure:"seller_count"`
	VolumeConsistency float64 `mapstructure:"volume_consistency"`
	MarginSize        float64 `mapstructure:"margin_size"`
}

// RiskConfig drives the classification table. Rows are evaluated
// low → medium in order; whatever matches neither is high risk.
type RiskConfig struct {
	LowConfidenceFloor    float64 `mapstructure:"low_confidence_floor"`
	LowMarginFloorPct     float64 `mapstructure:"low_margin_floor_pct"`
	MediumConfidenceFloor float64 `mapstructure:"medium_confidence_floor"`
	MediumMarginFloorPct  float64 `mapstructure:"medium_margin_floor_pct"`
}

type OpportunityConfig struct {
	MinMarginPct float64       `mapstructure:"min_margin_pct"`
	TTL          time.Duration `mapstructure:"ttl"`
}

type ScanConfig struct {
	BatchSize   int `mapstructure:"batch_size"`
	Parallelism int `mapstructure:"parallelism"`
}

type AlertConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	WebhookURL      string        `mapstructure:"webhook_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ConfidenceFloor float64       `mapstructure:"confidence_floor"`
	MaxRiskLevel    string        `mapstructure:"max_risk_level"`
}

type IngestConfig struct {
	MaxBatch int `mapstructure:"max_batch"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	// Price refresh runs finest-to-coarsest against cost: analysis is the
	// expensive pass, the expiry sweep is cheap and frequent.
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.price_refresh", "@every 4h")
	v.SetDefault("cron.analysis", "@every 6h")
	v.SetDefault("cron.expiry_sweep", "@every 10m")

	v.SetDefault("valuation.recency_window", "24h")
	v.SetDefault("valuation.fee_rate", 0.0)
	v.SetDefault("valuation.probability_tolerance", 0.05)

	v.SetDefault("confidence.weights.price_stability", 0.3)
	v.SetDefault("confidence.weights.seller_count", 0.2)
	v.SetDefault("confidence.weights.volume_consistency", 0.2)
	v.SetDefault("confidence.weights.margin_size", 0.3)
	v.SetDefault("confidence.stability_cv_ceiling", 0.5)
	v.SetDefault("confidence.seller_peak", 5)
	v.SetDefault("confidence.margin_band_floor_pct", 30)
	v.SetDefault("confidence.margin_band_ceiling_pct", 100)
	v.SetDefault("confidence.margin_decay_pct", 50)

	v.SetDefault("risk.low_confidence_floor", 0.8)
	v.SetDefault("risk.low_margin_floor_pct", 50)
	v.SetDefault("risk.medium_confidence_floor", 0.6)
	v.SetDefault("risk.medium_margin_floor_pct", 30)

	v.SetDefault("opportunity.min_margin_pct", 10)
	v.SetDefault("opportunity.ttl", "24h")

	v.SetDefault("scan.batch_size", 50)
	v.SetDefault("scan.parallelism", 4)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.timeout", "5s")
	v.SetDefault("alert.confidence_floor", 0.8)
	v.SetDefault("alert.max_risk_level", "medium")

	v.SetDefault("ingest.max_batch", 500)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
