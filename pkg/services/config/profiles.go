package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/databricks/databricks-sdk-go/config"
	sf "github.com/snowflakedb/gosnowflake"
	"gopkg.in/ini.v1"
)

// Profile is one connection section of the profiles file:
//
//	[warehouse]
//	driver    = databricks
//	host      = https://adb-123.azuredatabricks.net
//	token     = dapi...
//	http_path = /sql/1.0/warehouses/abc
type Profile struct {
	Name      string
	Driver    string
	DSN       string
	Host      string
	Token     string
	HTTPPath  string
	Catalog   string
	Schema    string
	Account   string
	User      string
	Password  string
	Database  string
	Warehouse string
	Role      string
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

// NewEmptyRegistry is used when no profiles file is configured.
func NewEmptyRegistry() Registry {
	return &cfgRegistry{cfg: ini.Empty()}
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil || len(section.Keys()) == 0 {
		return nil, fmt.Errorf("profile %s not found", name)
	}

	p := &Profile{
		Name:      name,
		Driver:    strings.ToLower(section.Key("driver").String()),
		DSN:       section.Key("dsn").String(),
		Host:      section.Key("host").String(),
		Token:     section.Key("token").String(),
		HTTPPath:  section.Key("http_path").String(),
		Catalog:   section.Key("catalog").String(),
		Schema:    section.Key("schema").String(),
		Account:   section.Key("account").String(),
		User:      section.Key("user").String(),
		Password:  section.Key("password").String(),
		Database:  section.Key("database").String(),
		Warehouse: section.Key("warehouse").String(),
		Role:      section.Key("role").String(),
	}
	// A bare .databrickscfg section has only host and token.
	if p.Driver == "" && p.Host != "" && p.Token != "" {
		p.Driver = "databricks"
	}
	return p, nil
}

// DatabricksConfig returns the SDK view of a databricks profile.
func (p *Profile) DatabricksConfig() *config.Config {
	return &config.Config{
		Host:    p.Host,
		Token:   p.Token,
		Profile: p.Name,
	}
}

// DatabricksHostname is the profile host without scheme or trailing slash.
func (p *Profile) DatabricksHostname() string {
	host := strings.TrimPrefix(strings.TrimPrefix(p.Host, "https://"), "http://")
	return strings.TrimSuffix(host, "/")
}

// DatabricksDSN builds a databricks-sql-go DSN from the profile.
func (p *Profile) DatabricksDSN() (string, error) {
	if p.DSN != "" {
		return p.DSN, nil
	}
	cfg := p.DatabricksConfig()
	if cfg.Host == "" || cfg.Token == "" || p.HTTPPath == "" {
		return "", fmt.Errorf("profile %s: databricks needs host, token and http_path", p.Name)
	}

	dsn := fmt.Sprintf("token:%s@%s%s", cfg.Token, p.DatabricksHostname(), p.HTTPPath)

	params := url.Values{}
	if p.Catalog != "" {
		params.Set("catalog", p.Catalog)
	}
	if p.Schema != "" {
		params.Set("schema", p.Schema)
	}
	if qp := params.Encode(); qp != "" {
		dsn = dsn + "?" + qp
	}
	return dsn, nil
}

// SnowflakeDSN builds a gosnowflake DSN from the profile.
func (p *Profile) SnowflakeDSN() (string, error) {
	if p.DSN != "" {
		return p.DSN, nil
	}
	if p.Account == "" || p.User == "" {
		return "", fmt.Errorf("profile %s: snowflake needs account and user", p.Name)
	}
	return sf.DSN(&sf.Config{
		Account:   p.Account,
		User:      p.User,
		Password:  p.Password,
		Database:  p.Database,
		Schema:    p.Schema,
		Warehouse: p.Warehouse,
		Role:      p.Role,
	})
}
