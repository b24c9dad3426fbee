package conn

import (
	"context"
	"fmt"
	"net/url"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Config defines connection options for PostgreSQL. DSN, when set, wins
// over the individual fields.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Params   map[string]string
	DSN      string

	Gorm *gorm.Config
}

// Client wraps a PostgreSQL connection pool.
type Client struct {
	cfg Config
	db  *gorm.DB
}

// Open creates a PostgreSQL client from the provided config.
func Open(cfg Config) (*Client, error) {
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}

	gcfg := cfg.Gorm
	if gcfg == nil {
		gcfg = &gorm.Config{}
	}

	db, err := gorm.Open(postgres.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	return &Client{cfg: cfg, db: db}, nil
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("postgres client is not open")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (cfg Config) dsn() (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}

	if cfg.Database != "" {
		u.Path = "/" + cfg.Database
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range cfg.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	if len(query) != 0 {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}
