package config

import (
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/Lumos-Labs-HQ/libseed/internal/manifest"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	LoanTxBatch = "batch" // every loan of the run in one transaction
	LoanTxLoan  = "loan"  // one transaction per loan and its payments

	FormatJSON = manifest.FormatJSON
	FormatYAML = manifest.FormatYAML

	// FixturePasswordHash is the bcrypt hash of "password". Seeded accounts
	// share it; it is test fixture data and never a real credential.
	FixturePasswordHash = "$2a$10$8uRZMJ6JNmWolT6.Vky9o./sMuCol51.tyNXOuTEiiH.miDo4sdH."
)

type Config struct {
	Database Database `json:"database" mapstructure:"database"`
	Seed     Seed     `json:"seed" mapstructure:"seed"`
	Manifest Manifest `json:"manifest" mapstructure:"manifest"`
}

type Database struct {
	Provider string `json:"provider" mapstructure:"provider"`
	Driver   string `json:"driver,omitempty" mapstructure:"driver"` // "pgx" (default) or "pq" for postgres
	URLEnv   string `json:"url_env" mapstructure:"url_env"`
}

type Seed struct {
	BooksFile   string   `json:"books_file" mapstructure:"books_file" validate:"required"`
	Publishers  int      `json:"publishers" mapstructure:"publishers" validate:"gte=1"`
	Authors     int      `json:"authors" mapstructure:"authors" validate:"gte=1"`
	Users       int      `json:"users" mapstructure:"users" validate:"gte=0"`
	Loans       int      `json:"loans" mapstructure:"loans" validate:"gte=0"`
	RandomSeed  int64    `json:"random_seed,omitempty" mapstructure:"random_seed"` // 0 = time based
	EmailDomain string   `json:"email_domain" mapstructure:"email_domain" validate:"required,fqdn"`
	EmailOffset int      `json:"email_offset" mapstructure:"email_offset" validate:"gte=0"`
	LoanTx      string   `json:"loan_tx" mapstructure:"loan_tx" validate:"oneof=batch loan"`
	Atomic      bool     `json:"atomic,omitempty" mapstructure:"atomic"`
	Accounts    Accounts `json:"accounts" mapstructure:"accounts"`
}

type Accounts struct {
	PasswordHash string `json:"password_hash,omitempty" mapstructure:"password_hash"`
	Password     string `json:"password,omitempty" mapstructure:"password" validate:"required_if=HashPerUser true"`
	HashPerUser  bool   `json:"hash_per_user,omitempty" mapstructure:"hash_per_user"`
	BcryptCost   int    `json:"bcrypt_cost,omitempty" mapstructure:"bcrypt_cost" validate:"omitempty,gte=4,lte=31"`
}

type Manifest struct {
	Path   string `json:"path" mapstructure:"path" validate:"required"`
	Format string `json:"format,omitempty" mapstructure:"format" validate:"omitempty,oneof=json yaml"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Provider == "" {
		cfg.Database.Provider = "postgresql"
	}
	if cfg.Database.URLEnv == "" {
		cfg.Database.URLEnv = "DATABASE_URL"
	}
	if cfg.Seed.BooksFile == "" {
		cfg.Seed.BooksFile = "books.json"
	}
	if cfg.Seed.Publishers == 0 {
		cfg.Seed.Publishers = 20
	}
	if cfg.Seed.Authors == 0 {
		cfg.Seed.Authors = 20
	}
	if cfg.Seed.Users == 0 && !viper.IsSet("seed.users") {
		cfg.Seed.Users = 50
	}
	if cfg.Seed.Loans == 0 && !viper.IsSet("seed.loans") {
		cfg.Seed.Loans = 500
	}
	if cfg.Seed.EmailDomain == "" {
		cfg.Seed.EmailDomain = "cunoc.edu.gt"
	}
	if cfg.Seed.EmailOffset == 0 && !viper.IsSet("seed.email_offset") {
		cfg.Seed.EmailOffset = 2
	}
	if cfg.Seed.LoanTx == "" {
		cfg.Seed.LoanTx = LoanTxBatch
	}
	if cfg.Seed.Accounts.PasswordHash == "" {
		cfg.Seed.Accounts.PasswordHash = FixturePasswordHash
	}
	if cfg.Seed.Accounts.Password == "" && cfg.Seed.Accounts.HashPerUser {
		cfg.Seed.Accounts.Password = "password"
	}
	if cfg.Manifest.Path == "" {
		cfg.Manifest.Path = "generated_ids.json"
	}
	if cfg.Manifest.Format == "" {
		cfg.Manifest.Format = manifest.FormatFromPath(cfg.Manifest.Path)
	}

	return &cfg, nil
}

// GetDatabaseURL reads the URL from the configured environment variable,
// falling back to the discrete DB_* variables.
func (c *Config) GetDatabaseURL() (string, error) {
	if dbURL := os.Getenv(c.Database.URLEnv); dbURL != "" {
		return dbURL, nil
	}

	host := os.Getenv("DB_HOST")
	name := os.Getenv("DB_NAME")
	if host == "" || name == "" || !c.IsPostgres() {
		return "", fmt.Errorf("database URL not found in environment variable %s", c.Database.URLEnv)
	}

	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("DB_USR"), os.Getenv("DB_PSW")),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if sslMode := os.Getenv("DB_SSLMODE"); sslMode != "" {
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	}
	return u.String(), nil
}

func (c *Config) IsPostgres() bool {
	return c.Database.Provider == "postgresql" || c.Database.Provider == "postgres"
}

func (c *Config) Validate() error {
	supportedProviders := []string{"postgresql", "postgres", "sqlite", "sqlite3"}
	supported := false
	for _, provider := range supportedProviders {
		if c.Database.Provider == provider {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported database provider: %s. Supported providers: %v", c.Database.Provider, supportedProviders)
	}

	switch c.Database.Driver {
	case "", "pgx", "pq":
	default:
		return fmt.Errorf("unsupported database driver: %s. Supported drivers: [pgx pq]", c.Database.Driver)
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
