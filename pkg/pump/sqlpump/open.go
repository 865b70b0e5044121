package sqlpump

import (
	"context"
	"database/sql"
	"fmt"

	dbsql "github.com/databricks/databricks-sql-go"
	"github.com/de-tools/data-pump/pkg/services/config"
	"github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/snowflakedb/gosnowflake"
)

// Open connects to the database a profile describes and checks the connection.
func Open(ctx context.Context, profile *config.Profile) (*sql.DB, error) {
	db, err := open(profile)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("profile %s: ping %s: %w", profile.Name, profile.Driver, err)
	}
	return db, nil
}

func open(profile *config.Profile) (*sql.DB, error) {
	switch profile.Driver {
	case "duckdb":
		c, err := duckdb.NewConnector(profile.DSN, nil)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(c), nil
	case "sqlite3", "sqlite":
		if profile.DSN == "" {
			return nil, fmt.Errorf("sqlite3 needs a dsn")
		}
		return sql.Open("sqlite3", profile.DSN)
	case "snowflake":
		dsn, err := profile.SnowflakeDSN()
		if err != nil {
			return nil, err
		}
		return sql.Open("snowflake", dsn)
	case "databricks":
		if profile.DSN != "" {
			return sql.Open("databricks", profile.DSN)
		}
		cfg := profile.DatabricksConfig()
		if cfg.Host == "" || cfg.Token == "" || profile.HTTPPath == "" {
			return nil, fmt.Errorf("databricks needs host, token and http_path")
		}
		opts := []dbsql.ConnOption{
			dbsql.WithServerHostname(profile.DatabricksHostname()),
			dbsql.WithHTTPPath(profile.HTTPPath),
			dbsql.WithAccessToken(cfg.Token),
		}
		if profile.Catalog != "" || profile.Schema != "" {
			opts = append(opts, dbsql.WithInitialNamespace(profile.Catalog, profile.Schema))
		}
		c, err := dbsql.NewConnector(opts...)
		if err != nil {
			return nil, err
		}
		return sql.OpenDB(c), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", profile.Driver)
}
