// Package config provides Viper-based configuration loading for the level-up tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/srd/internal/game/levelup"
	"github.com/cory-johannsen/srd/internal/game/progression"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/scripting"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// StoreConfig selects where character records live.
type StoreConfig struct {
	// Driver is "postgres" or "memory". The memory store lasts one process.
	Driver string `mapstructure:"driver"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig locates the catalog content pools.
type ContentConfig struct {
	// CompendiumDir is the root of the compendium pool.
	CompendiumDir string `mapstructure:"compendium_dir"`
	// WorldDir is the root of the world pool, which takes precedence. Optional.
	WorldDir string `mapstructure:"world_dir"`
	// ScriptsDir holds Lua prerequisite scripts. Optional.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// Sources returns the content pools in precedence order: world, then compendium.
func (c ContentConfig) Sources() []ruleset.Source {
	var out []ruleset.Source
	if c.WorldDir != "" {
		out = append(out, ruleset.DirSource{Name: "world", Root: c.WorldDir})
	}
	return append(out, ruleset.DirSource{Name: "compendium", Root: c.CompendiumDir})
}

// RulesConfig holds the table rules of a level-up.
type RulesConfig struct {
	FullHPAtFirstLevel     bool   `mapstructure:"full_hp_at_first_level"`
	FighterClass           string `mapstructure:"fighter_class"`
	GeneralFeatLevels      []int  `mapstructure:"general_feat_levels"`
	FighterBonusFeatLevels []int  `mapstructure:"fighter_bonus_feat_levels"`
	// ScriptInstructionLimit bounds one prerequisite script call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// Policy converts the rules to a level-up policy.
func (r RulesConfig) Policy() levelup.Policy {
	return levelup.Policy{
		FullHPAtFirstLevel: r.FullHPAtFirstLevel,
		FighterClass:       r.FighterClass,
		FeatLevels: progression.FeatLevels{
			General:      append([]int(nil), r.GeneralFeatLevels...),
			FighterBonus: append([]int(nil), r.FighterBonusFeatLevels...),
		},
	}
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
	Content  ContentConfig  `mapstructure:"content"`
	Rules    RulesConfig    `mapstructure:"rules"`
}

// Validate checks all configuration invariants. Database settings are checked
// only for the postgres store.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStore(c.Store); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Store.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStore(s StoreConfig) error {
	valid := map[string]bool{"postgres": true, "memory": true}
	if !valid[s.Driver] {
		return fmt.Errorf("store.driver must be one of [postgres, memory], got %q", s.Driver)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.CompendiumDir == "" {
		return fmt.Errorf("content.compendium_dir must not be empty")
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if !ascending(r.GeneralFeatLevels) {
		errs = append(errs, fmt.Sprintf("rules.general_feat_levels must be positive and ascending, got %v", r.GeneralFeatLevels))
	}
	if !ascending(r.FighterBonusFeatLevels) {
		errs = append(errs, fmt.Sprintf("rules.fighter_bonus_feat_levels must be positive and ascending, got %v", r.FighterBonusFeatLevels))
	}
	if r.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("rules.script_instruction_limit must be >= 0, got %d", r.ScriptInstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func ascending(levels []int) bool {
	prev := 0
	for _, l := range levels {
		if l <= prev {
			return false
		}
		prev = l
	}
	return true
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
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SRD_ prefix
	v.SetEnvPrefix("SRD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
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

// Defaults returns a Viper instance holding only the default settings.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "srd")
	v.SetDefault("database.password", "srd")
	v.SetDefault("database.name", "srd")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.compendium_dir", "content")

	v.SetDefault("rules.full_hp_at_first_level", true)
	v.SetDefault("rules.fighter_class", "fighter")
	v.SetDefault("rules.general_feat_levels", progression.DefaultGeneralFeatLevels)
	v.SetDefault("rules.fighter_bonus_feat_levels", progression.DefaultFighterBonusFeatLevels)
	v.SetDefault("rules.script_instruction_limit", scripting.DefaultInstructionLimit)
}
