package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/rustyeddy/tradejournal/market"
	"github.com/rustyeddy/tradejournal/risk"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. TJ_JOURNAL_TYPE.
const EnvPrefix = "TJ"

// Config represents the complete tradejournal configuration
type Config struct {
	Sizing  SizingConfig  `json:"sizing" yaml:"sizing"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// SizingConfig contains position sizing parameters.
//
// DefaultPipLocation and JPYPipLocation apply only to instruments missing
// from market.Instruments; listed instruments (EUR_USD, USD_JPY, ...)
// always use their own pip location.
type SizingConfig struct {
	PipValuePerLot     float64 `json:"pip_value_per_lot" yaml:"pip_value_per_lot" split_words:"true"`
	DefaultPipLocation int     `json:"default_pip_location" yaml:"default_pip_location" split_words:"true"`
	JPYPipLocation     int     `json:"jpy_pip_location" yaml:"jpy_pip_location" split_words:"true"`

	// Soft limits reported as warnings; zero disables a check.
	MaxRiskAmount float64 `json:"max_risk_amount,omitempty" yaml:"max_risk_amount,omitempty" split_words:"true"`
	MaxLotSize    float64 `json:"max_lot_size,omitempty" yaml:"max_lot_size,omitempty" split_words:"true"`
	MinRR         float64 `json:"min_rr,omitempty" yaml:"min_rr,omitempty" split_words:"true"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "file" or "sqlite"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty" split_words:"true"`
}

// ServerConfig contains HTTP API parameters
type ServerConfig struct {
	Addr        string `json:"addr" yaml:"addr"`
	ScopeHeader string `json:"scope_header" yaml:"scope_header" split_words:"true"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// Load resolves the effective configuration: the file at path (or
// Default when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON). Fields
// missing from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from TJ_<SECTION>_<FIELD> environment
// variables. Unset variables leave the current value alone.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("process env config: %w", err)
	}
	return nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"sizing.pip_value_per_lot", c.Sizing.PipValuePerLot},
		{"sizing.max_risk_amount", c.Sizing.MaxRiskAmount},
		{"sizing.max_lot_size", c.Sizing.MaxLotSize},
		{"sizing.min_rr", c.Sizing.MinRR},
	} {
		d, err := risk.DecimalFromFloat(f.name, f.v)
		if err != nil {
			return err
		}
		if err := risk.CheckMagnitude(f.name, d); err != nil {
			return err
		}
	}
	if c.Sizing.PipValuePerLot <= 0 {
		return fmt.Errorf("sizing.pip_value_per_lot must be positive")
	}
	if c.Sizing.DefaultPipLocation >= 0 || c.Sizing.JPYPipLocation >= 0 {
		return fmt.Errorf("sizing pip locations must be negative")
	}
	if c.Sizing.MaxRiskAmount < 0 || c.Sizing.MaxLotSize < 0 || c.Sizing.MinRR < 0 {
		return fmt.Errorf("sizing limits must not be negative")
	}
	switch c.Journal.Type {
	case journal.TypeFile:
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal.dir required for file type")
		}
	case journal.TypeSQLite:
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'file' or 'sqlite'")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ScopeHeader == "" {
		return fmt.Errorf("server.scope_header is required")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	return nil
}

// Sizer builds the position sizer described by the sizing section. It
// expects a config that passed Validate.
func (c *Config) Sizer() risk.Sizer {
	return risk.NewSizer(
		decimal.NewFromFloat(c.Sizing.PipValuePerLot),
		market.PipTable{
			DefaultLocation: c.Sizing.DefaultPipLocation,
			JPYLocation:     c.Sizing.JPYPipLocation,
		},
	)
}

// Policy builds the soft sizing limits.
func (c *Config) Policy() risk.Policy {
	return risk.Policy{
		MaxRiskAmount: decimal.NewFromFloat(c.Sizing.MaxRiskAmount),
		MaxLotSize:    decimal.NewFromFloat(c.Sizing.MaxLotSize),
		MinRR:         decimal.NewFromFloat(c.Sizing.MinRR),
	}
}

// Backend describes the journal store to open.
func (c *Config) Backend() journal.Backend {
	return journal.Backend{
		Type:   c.Journal.Type,
		Dir:    c.Journal.Dir,
		DBPath: c.Journal.DBPath,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Sizing: SizingConfig{
			PipValuePerLot:     10,
			DefaultPipLocation: market.DefaultPipLocation,
			JPYPipLocation:     market.JPYPipLocation,
		},
		Journal: JournalConfig{
			Type: journal.TypeFile,
			Dir:  "./journal",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			ScopeHeader: "X-Journal-Scope",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
