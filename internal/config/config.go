// Package config provides Viper-based configuration loading for combatflow.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// EngineConfig holds resolution engine settings.
type EngineConfig struct {
	// MaxChainDepth bounds nested retaliation and failure-condition chains.
	// 0 disables the bound.
	MaxChainDepth int `mapstructure:"max_chain_depth"`
	// SuppressEffectsOnZeroDamage drops effects from hits that deal no damage.
	SuppressEffectsOnZeroDamage bool `mapstructure:"suppress_effects_on_zero_damage"`
	// Seed makes dice reproducible when non-zero; 0 uses crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// MaxTurns stops a skirmish after this many turns. 0 means no limit.
	MaxTurns int `mapstructure:"max_turns"`
	// Initiative is the dice expression rolled per combatant at start.
	Initiative string `mapstructure:"initiative"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit caps VM instructions per strategy call. 0 means unlimited.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// Dir is the Lua script root. Each subdirectory is loaded as a VM named
	// after it; files directly under Dir form the fallback VM. Empty disables scripting.
	Dir string `mapstructure:"dir"`
}

// ContentConfig locates authored content.
type ContentConfig struct {
	// RosterDir is the directory of combatant template YAML files.
	RosterDir string `mapstructure:"roster_dir"`
	// DomainDir is the directory of HTN planner domain YAML files.
	DomainDir string `mapstructure:"domain_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Content   ContentConfig   `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.MaxChainDepth < 0 {
		errs = append(errs, fmt.Sprintf("engine.max_chain_depth must be >= 0, got %d", e.MaxChainDepth))
	}
	if e.MaxTurns < 0 {
		errs = append(errs, fmt.Sprintf("engine.max_turns must be >= 0, got %d", e.MaxTurns))
	}
	if strings.TrimSpace(e.Initiative) == "" {
		errs = append(errs, "engine.initiative must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// New returns a Viper instance with defaults set and COMBATFLOW_ environment
// overrides enabled, e.g. COMBATFLOW_ENGINE_SEED.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("COMBATFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("engine.max_chain_depth", 64)
	v.SetDefault("engine.suppress_effects_on_zero_damage", true)
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.max_turns", 200)
	v.SetDefault("engine.initiative", "1d20")

	v.SetDefault("scripting.instruction_limit", 100000)
	v.SetDefault("scripting.dir", "")

	v.SetDefault("content.roster_dir", "content/roster")
	v.SetDefault("content.domain_dir", "content/ai")
}
