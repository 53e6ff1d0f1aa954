package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Solana     SolanaConfig
	Governance GovernanceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// SolanaConfig holds on-chain client settings
type SolanaConfig struct {
	Network                string
	InsuranceProgramID     string
	ServerWalletPrivateKey string
	RPCTimeout             time.Duration
	RPCMaxAttempts         int
}

// GovernanceConfig holds claim-voting policy settings
type GovernanceConfig struct {
	// VotingQuorum is the minimum total vote count before a claim can be
	// approved. 0 disables the quorum check.
	VotingQuorum int64
	// ClaimValidity is the default voting window applied when a claim is
	// filed without an explicit deadline.
	ClaimValidity time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "creator_insurance"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Solana: SolanaConfig{
			Network:                getEnv("SOLANA_NETWORK", "devnet"),
			InsuranceProgramID:     getEnv("SOLANA_INSURANCE_PROGRAM_ID", ""),
			ServerWalletPrivateKey: getEnv("SOLANA_SERVER_WALLET_PRIVATE_KEY", ""),
			RPCTimeout:             getEnvDuration("SOLANA_RPC_TIMEOUT", 8*time.Second),
			RPCMaxAttempts:         getEnvInt("SOLANA_RPC_MAX_ATTEMPTS", 3),
		},
		Governance: GovernanceConfig{
			VotingQuorum:  int64(getEnvInt("GOVERNANCE_VOTING_QUORUM", 0)),
			ClaimValidity: getEnvDuration("GOVERNANCE_CLAIM_VALIDITY", 24*time.Hour),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a fallback default
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration gets a duration environment variable with a fallback default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
