package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "DATAPUMP"

type StoreConfig struct {
	Path    string `mapstructure:"path"`
	Threads int    `mapstructure:"threads"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// FieldConfig declares a pump field as "name" plus "type".
type FieldConfig struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

// PumpConfig registers a data pump backed by an external source.
// Kind selects the source: sql, s3csv or awscost.
type PumpConfig struct {
	Name        string        `mapstructure:"name"`
	Kind        string        `mapstructure:"kind"`
	Description string        `mapstructure:"description"`
	Profile     string        `mapstructure:"profile"`
	Query       string        `mapstructure:"query"`
	Bucket      string        `mapstructure:"bucket"`
	Key         string        `mapstructure:"key"`
	Region      string        `mapstructure:"region"`
	Fields      []FieldConfig `mapstructure:"fields"`
	OutputShape []string      `mapstructure:"output_shape"`
	PushDown    []string      `mapstructure:"push_down"`
}

type AppConfig struct {
	LogLevel string       `mapstructure:"log_level"`
	Profiles string       `mapstructure:"profiles"`
	Store    StoreConfig  `mapstructure:"store"`
	Server   ServerConfig `mapstructure:"server"`
	Pumps    []PumpConfig `mapstructure:"pumps"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("profiles", "")
	v.SetDefault("store.path", "data-pump.db")
	v.SetDefault("store.threads", 4)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
}

// LoadApp reads the application config. An empty path uses defaults and
// DATAPUMP_* environment variables only, e.g. DATAPUMP_SERVER_PORT.
func LoadApp(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse app config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	var errs []error
	seen := map[string]bool{}
	for i, p := range c.Pumps {
		switch {
		case p.Name == "":
			errs = append(errs, fmt.Errorf("pumps[%d]: name is required", i))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("pumps[%d]: duplicate pump %q", i, p.Name))
		}
		seen[p.Name] = true

		switch p.Kind {
		case "sql":
			if p.Profile == "" || p.Query == "" {
				errs = append(errs, fmt.Errorf("pump %q: sql pumps need a profile and a query", p.Name))
			}
		case "s3csv":
			if p.Bucket == "" || p.Key == "" {
				errs = append(errs, fmt.Errorf("pump %q: s3csv pumps need a bucket and a key", p.Name))
			}
		case "awscost":
		default:
			errs = append(errs, fmt.Errorf("pump %q: unknown kind %q", p.Name, p.Kind))
		}
		if p.Kind != "awscost" && len(p.Fields) == 0 {
			errs = append(errs, fmt.Errorf("pump %q: at least one field is required", p.Name))
		}
	}
	return errors.Join(errs...)
}
