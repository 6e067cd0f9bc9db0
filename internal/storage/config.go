package storage

import (
	"fmt"
	"os"
	"strings"
)

// Backend names accepted in Config.Backend
const (
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendPgx      = "pgx"
)

// DefaultPath is where the sqlite backend keeps its file
const DefaultPath = "./data/emql.db"

// Config holds storage connection configuration
type Config struct {
	Backend  string // "sqlite", "mysql", "postgres" or "pgx"
	Path     string // sqlite file
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// LoadConfigFromEnv loads storage configuration from environment variables
func LoadConfigFromEnv() (Config, error) {
	backend := normalizeBackend(os.Getenv("EMQL_BACKEND"))
	if backend == "" {
		backend = BackendSQLite
	}

	path := os.Getenv("EMQL_PATH")
	if path == "" {
		path = DefaultPath
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = defaultPort(backend)
	}

	config := Config{
		Backend:  backend,
		Path:     path,
		Host:     host,
		Port:     port,
		Database: os.Getenv("DB_NAME"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks that the backend is known and has what it needs to connect
func (c Config) Validate() error {
	switch normalizeBackend(c.Backend) {
	case BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("sqlite backend requires a path")
		}
	case BackendMySQL, BackendPostgres, BackendPgx:
		if c.Database == "" {
			return fmt.Errorf("DB_NAME environment variable is required for %s", c.Backend)
		}
	default:
		return fmt.Errorf("unsupported backend: %s", c.Backend)
	}
	return nil
}

// driver returns the database/sql driver name and DSN for the backend
func (c Config) driver() (string, string, error) {
	switch normalizeBackend(c.Backend) {
	case BackendSQLite:
		return "sqlite", c.Path, nil
	case BackendMySQL:
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database), nil
	case BackendPostgres:
		return "postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database), nil
	case BackendPgx:
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.User, c.Password, c.Host, c.Port, c.Database), nil
	default:
		return "", "", fmt.Errorf("unsupported backend: %s", c.Backend)
	}
}

func normalizeBackend(name string) string {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3":
		return BackendSQLite
	case "mysql":
		return BackendMySQL
	case "postgres", "postgresql":
		return BackendPostgres
	case "pgx":
		return BackendPgx
	default:
		return strings.ToLower(name)
	}
}

func defaultPort(backend string) string {
	switch backend {
	case BackendMySQL:
		return "3306"
	case BackendPostgres, BackendPgx:
		return "5432"
	default:
		return ""
	}
}
