package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Environment variables read by NewDatabaseConfiguration
const (
	EnvDBHost     = "HIERSEARCH_DB_HOST"
	EnvDBPort     = "HIERSEARCH_DB_PORT"
	EnvDBDatabase = "HIERSEARCH_DB_DATABASE"
	EnvDBUsername = "HIERSEARCH_DB_USERNAME"
	EnvDBPassword = "HIERSEARCH_DB_PASSWORD"
	EnvDBSchema   = "HIERSEARCH_DB_SCHEMA"
	EnvDBSSLMode  = "HIERSEARCH_DB_SSLMODE"
)

// DatabaseConfiguration holds the connection parameters of the document store
type DatabaseConfiguration struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Schema   string `toml:"schema"`
	SSLMode  string `toml:"sslmode"`
}

// NewDatabaseConfiguration reads the database configuration from the environment.
// A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     getEnvOrDefault(EnvDBHost, "localhost"),
		Port:     getEnvOrDefault(EnvDBPort, "5432"),
		Database: os.Getenv(EnvDBDatabase),
		Username: os.Getenv(EnvDBUsername),
		Password: os.Getenv(EnvDBPassword),
		Schema:   getEnvOrDefault(EnvDBSchema, "public"),
		SSLMode:  getEnvOrDefault(EnvDBSSLMode, "disable"),
	}

	if config.Database == "" || config.Username == "" {
		return nil, NewError("database configuration", fmt.Errorf("%s and %s must be set", EnvDBDatabase, EnvDBUsername))
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection string
func (c *DatabaseConfiguration) ConnectionString() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%s", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("user=%s", c.Username),
		fmt.Sprintf("password=%s", c.Password),
		fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	if c.Schema != "" {
		parts = append(parts, fmt.Sprintf("search_path=%s", c.Schema))
	}
	return strings.Join(parts, " ")
}

// Database wraps the sql connection together with its logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens and pings a connection. It exits the process if the store is unreachable.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Fatalf("error opening database %s: %v", name, err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Fatalf("error pinging database %s: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase creates a database with a logger writing to stdout at debug level
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	return NewDatabase("test", config, NewLogger(os.Stdout, slog.LevelDebug))
}

// Close closes the underlying connection
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

// SetTestDatabaseConfigEnvs sets the environment for a container started by MustStartPostgresContainer
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv(EnvDBHost, "localhost")
	t.Setenv(EnvDBPort, port)
	t.Setenv(EnvDBDatabase, testDatabaseName)
	t.Setenv(EnvDBUsername, testDatabaseUser)
	t.Setenv(EnvDBPassword, testDatabasePassword)
	t.Setenv(EnvDBSchema, "public")
	t.Setenv(EnvDBSSLMode, "disable")
}

func getEnvOrDefault(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
