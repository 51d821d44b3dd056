package qgrover

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/*
Config holds the run settings that are not part of the experiment itself:
pool size, time budgets, seeding, decoherence constants and backend
resilience.
*/
type Config struct {
	Workers           int           `mapstructure:"workers"`
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
	Seed              uint64        `mapstructure:"seed"`
	Noise             NoiseConfig   `mapstructure:"noise"`
	Retry             RetryConfig   `mapstructure:"retry"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
	RateLimit         RateConfig    `mapstructure:"rate_limit"`
}

/*
NoiseConfig holds the decoherence constants a noise level scales.
DephasingRate must be at least half of DampingRate (T2 <= 2*T1). Damping on
its own pushes readouts toward 0, so a key with zero bits could score better
as the level rises.
*/
type NoiseConfig struct {
	DampingRate   float64 `mapstructure:"damping_rate"`
	DephasingRate float64 `mapstructure:"dephasing_rate"`
	GateDuration  float64 `mapstructure:"gate_duration"`
}

type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// RateConfig throttles runs per device. Zero runs per second is unlimited.
type RateConfig struct {
	RunsPerSecond float64 `mapstructure:"runs_per_second"`
	Burst         int     `mapstructure:"burst"`
}

type BreakerConfig struct {
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
	HalfOpenMax  int           `mapstructure:"half_open_max"`
}

func NewConfig() *Config {
	return &Config{
		Workers:           runtime.GOMAXPROCS(0),
		SchedulingTimeout: 10 * time.Second,
		Seed:              1,
		Noise: NoiseConfig{
			DampingRate:   DefaultDampingRate,
			DephasingRate: DefaultDephasingRate,
			GateDuration:  DefaultGateDuration,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 10 * time.Millisecond,
		},
		Breaker: BreakerConfig{
			MaxFailures:  5,
			ResetTimeout: time.Minute,
			HalfOpenMax:  1,
		},
		RateLimit: RateConfig{
			Burst: 1,
		},
	}
}

// At returns the noise parameters for one level of a sweep.
func (n NoiseConfig) At(level float64) NoiseParameters {
	return NoiseParameters{
		Level:         level,
		DampingRate:   n.DampingRate,
		DephasingRate: n.DephasingRate,
		GateDuration:  n.GateDuration,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: %d workers", ErrInvalidConfiguration, c.Workers)
	case c.SchedulingTimeout <= 0:
		return fmt.Errorf("%w: scheduling timeout %v", ErrInvalidConfiguration, c.SchedulingTimeout)
	case c.BatchTimeout < 0:
		return fmt.Errorf("%w: batch timeout %v", ErrInvalidConfiguration, c.BatchTimeout)
	case c.Retry.MaxAttempts < 1:
		return fmt.Errorf("%w: %d retry attempts", ErrInvalidConfiguration, c.Retry.MaxAttempts)
	case c.Breaker.MaxFailures < 1 || c.Breaker.HalfOpenMax < 1:
		return fmt.Errorf("%w: breaker %+v", ErrInvalidConfiguration, c.Breaker)
	case c.RateLimit.RunsPerSecond < 0 || c.RateLimit.Burst < 1:
		return fmt.Errorf("%w: rate limit %+v", ErrInvalidConfiguration, c.RateLimit)
	case c.Noise.DephasingRate < c.Noise.DampingRate/2:
		return fmt.Errorf("%w: dephasing rate %v below half the damping rate %v",
			ErrInvalidConfiguration, c.Noise.DephasingRate, c.Noise.DampingRate)
	}
	return c.Noise.At(0).Validate()
}

/*
LoadConfig reads settings from an optional file (any format viper knows,
chosen by extension) and from QGROVER_* environment variables, on top of
NewConfig's defaults. Nested keys use underscores in the environment, for
example QGROVER_NOISE_DAMPING_RATE.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewConfig())

	v.SetEnvPrefix("qgrover")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfiguration, path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %v", ErrInvalidConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("workers", d.Workers)
	v.SetDefault("scheduling_timeout", d.SchedulingTimeout)
	v.SetDefault("batch_timeout", d.BatchTimeout)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("noise.damping_rate", d.Noise.DampingRate)
	v.SetDefault("noise.dephasing_rate", d.Noise.DephasingRate)
	v.SetDefault("noise.gate_duration", d.Noise.GateDuration)
	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_delay", d.Retry.InitialDelay)
	v.SetDefault("breaker.max_failures", d.Breaker.MaxFailures)
	v.SetDefault("breaker.reset_timeout", d.Breaker.ResetTimeout)
	v.SetDefault("breaker.half_open_max", d.Breaker.HalfOpenMax)
	v.SetDefault("rate_limit.runs_per_second", d.RateLimit.RunsPerSecond)
	v.SetDefault("rate_limit.burst", d.RateLimit.Burst)
}
