package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/dwarvesf/bridge-relayer/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Store       StoreConfig
	Registry    RegistryConfig
	Sui         SuiConfig
	Signer      SignerConfig
	Custody     CustodyConfig
	Vault       VaultConfig
	Pricing     PricingConfig
	Timeouts    TimeoutConfig
	Reconcile   ReconcileConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

// DSN is the libpq style connection string shared by gorm and pgx.
func (c DBConnection) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Pass, c.Name, c.Port, c.SSLMode,
	)
}

type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver string
}

type RegistryConfig struct {
	Path string
}

type SuiConfig struct {
	ChainID         string
	RPCEndpoint     string
	BridgePackageID string
	BridgeStateID   string
	GasBudget       uint64
	// ExecutorKeyRef names the custody entry holding the executor account seed.
	ExecutorKeyRef string
	ExecutorKey    string
}

type SignerConfig struct {
	// Driver is "local" or "vault"
	Driver          string
	PrivateKey      string
	PrivateKeyRef   string
	VaultTransitKey string
}

type CustodyConfig struct {
	// Driver is "vault" or "memory"
	Driver string
}

type VaultConfig struct {
	Addr    string
	Role    string
	Token   string
	KVMount string
	KVPath  string
}

type PricingConfig struct {
	OutputPercent    int64
	MinOutputPercent int64
}

type TimeoutConfig struct {
	ChainRequest time.Duration
	Submission   time.Duration
}

type ReconcileConfig struct {
	Schedule  string
	BatchSize int
	Timeout   time.Duration
	// UptimeWebhookURL is pinged after every successful pass, empty disables it
	UptimeWebhookURL string
}

func New() *AppConfig {
	env := environments.Parse(os.Getenv("APP_ENV"))

	// this will not override env variables if they already exist
	godotenv.Load(".env." + string(env))

	return &AppConfig{
		Environment: env,
		ApiServer: ApiServerConfig{
			Port:           envOrDefault("PORT", "3000"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: envOrDefault("DB_SSL_MODE", "disable"),
		},
		Store: StoreConfig{
			Driver: envOrDefault("STORE_DRIVER", "postgres"),
		},
		Registry: RegistryConfig{
			Path: envOrDefault("REGISTRY_PATH", "config/registry.json"),
		},
		Sui: SuiConfig{
			ChainID:         envOrDefault("SUI_CHAIN_ID", "sui:testnet"),
			RPCEndpoint:     envOrDefault("SUI_RPC_URL", "https://fullnode.testnet.sui.io:443"),
			BridgePackageID: os.Getenv("SUI_BRIDGE_MODULE"),
			BridgeStateID:   os.Getenv("SUI_BRIDGE_STATE"),
			GasBudget:       uint64(envVarAtoiOrDefault("SUI_GAS_BUDGET", 50_000_000)),
			ExecutorKeyRef:  os.Getenv("SUI_EXECUTOR_KEY_REF"),
			ExecutorKey:     os.Getenv("SUI_EXECUTOR_KEY"),
		},
		Signer: SignerConfig{
			Driver:          envOrDefault("SIGNER_DRIVER", "local"),
			PrivateKey:      os.Getenv("SUI_PRIV_KEY"),
			PrivateKeyRef:   os.Getenv("SIGNER_KEY_REF"),
			VaultTransitKey: os.Getenv("VAULT_TRANSIT_KEY"),
		},
		Custody: CustodyConfig{
			Driver: envOrDefault("CUSTODY_DRIVER", "vault"),
		},
		Vault: VaultConfig{
			Addr:    os.Getenv("VAULT_ADDR"),
			Role:    os.Getenv("VAULT_ROLE"),
			Token:   os.Getenv("VAULT_TOKEN"),
			KVMount: envOrDefault("VAULT_KV_MOUNT", "secret"),
			KVPath:  envOrDefault("VAULT_KV_PATH", "bridge-relayer/deposit-keys"),
		},
		Pricing: PricingConfig{
			OutputPercent:    int64(envVarAtoiOrDefault("QUOTE_OUTPUT_PERCENT", 90)),
			MinOutputPercent: int64(envVarAtoiOrDefault("QUOTE_MIN_OUTPUT_PERCENT", 80)),
		},
		Timeouts: TimeoutConfig{
			ChainRequest: envVarAsDurationOrDefault("CHAIN_REQUEST_TIMEOUT", 10*time.Second),
			Submission:   envVarAsDurationOrDefault("MINT_SUBMISSION_TIMEOUT", 60*time.Second),
		},
		Reconcile: ReconcileConfig{
			Schedule:         envOrDefault("RECONCILE_SCHEDULE", "@every 30s"),
			BatchSize:        envVarAtoiOrDefault("RECONCILE_BATCH_SIZE", 100),
			Timeout:          envVarAsDurationOrDefault("RECONCILE_TIMEOUT", 5*time.Minute),
			UptimeWebhookURL: os.Getenv("RECONCILE_UPTIME_WEBHOOK_URL"),
		},
	}
}

// Validate reports the first setting that makes the relay unusable.
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Postgres.Host == "" || c.Postgres.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the postgres store")
		}
	case "memory":
		if c.Environment.IsProduction() {
			return errors.New("memory store is not allowed in production")
		}
	default:
		return errors.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Signer.Driver {
	case "local":
		if c.Signer.PrivateKey == "" && c.Signer.PrivateKeyRef == "" {
			return errors.New("SUI_PRIV_KEY or SIGNER_KEY_REF is required for the local signer")
		}
	case "vault":
		if c.Vault.Addr == "" || c.Signer.VaultTransitKey == "" {
			return errors.New("VAULT_ADDR and VAULT_TRANSIT_KEY are required for the vault signer")
		}
	default:
		return errors.Errorf("unknown SIGNER_DRIVER %q", c.Signer.Driver)
	}

	if c.Custody.Driver == "vault" && c.Vault.Addr == "" {
		return errors.New("VAULT_ADDR is required for vault custody")
	}

	if c.Pricing.MinOutputPercent > c.Pricing.OutputPercent {
		return errors.New("QUOTE_MIN_OUTPUT_PERCENT must not exceed QUOTE_OUTPUT_PERCENT")
	}

	if c.Sui.ExecutorKey == "" && c.Sui.ExecutorKeyRef == "" {
		return errors.New("SUI_EXECUTOR_KEY or SUI_EXECUTOR_KEY_REF is required")
	}

	if c.Sui.BridgePackageID == "" || c.Sui.BridgeStateID == "" {
		return errors.New("SUI_BRIDGE_MODULE and SUI_BRIDGE_STATE are required")
	}

	return nil
}

func envOrDefault(envName, fallback string) string {
	if v := os.Getenv(envName); v != "" {
		return v
	}
	return fallback
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(errors.Wrapf(err, "invalid %s", envName))
	}

	return value
}

func envVarAsDurationOrDefault(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(errors.Wrapf(err, "invalid %s", envName))
	}

	return value
}
