package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                  string
	Port                 string
	LogLevel             string
	DatabaseURL          string // empty runs the ledger on embedded SQLite
	SQLitePath           string
	RedisURL             string // empty keeps consumed nonces in the ledger database
	NATSURL              string // empty uses the in-process settlement bus
	WalletAuthSecret     string
	AdminWallets         string // comma-separated
	IndexerWebhookSecret string
	FrontendURLEndsWith  string
	DevPassword          string
	HealthAdminKey       string
	Deployment           Deployment
}

// Deployment is the read-only contract registry and alert tuning served to the ops console.
type Deployment struct {
	Env                  string            `json:"env"`
	LaunchFactoryAddress string            `json:"launchFactoryAddress"`
	SaleTemplateAddress  string            `json:"saleTemplateAddress"`
	Anomaly              AnomalyThresholds `json:"anomalyThresholds"`
}

type AnomalyThresholds struct {
	BucketMinutes        int `json:"bucketMinutes"`
	RefundWarningCount   int `json:"refundWarningCount"`
	RefundCriticalCount  int `json:"refundCriticalCount"`
	DropoffLookbackHours int `json:"dropoffLookbackHours"`
}

// DefaultWalletAuthSecret signs wallet requests when WALLET_AUTH_SECRET is unset.
const DefaultWalletAuthSecret = "dev-wallet-secret"

var deployEnvs = map[string]bool{"devnet": true, "testnet": true, "mainnet": true}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SQLITE_PATH", "birthpad.db")
	viper.SetDefault("WALLET_AUTH_SECRET", DefaultWalletAuthSecret)
	viper.SetDefault("DEPLOY_ENV", "devnet")
	viper.SetDefault("OPS_ANOMALY_BUCKET_MINUTES", 15)
	viper.SetDefault("OPS_REFUND_WARNING_COUNT", 3)
	viper.SetDefault("OPS_REFUND_CRITICAL_COUNT", 10)
	viper.SetDefault("OPS_DROPOFF_LOOKBACK_HOURS", 24)

	deployEnv := strings.ToLower(strings.TrimSpace(viper.GetString("DEPLOY_ENV")))
	if !deployEnvs[deployEnv] {
		deployEnv = "devnet"
	}

	return &Config{
		Env:                  viper.GetString("APP_ENV"),
		Port:                 viper.GetString("PORT"),
		LogLevel:             viper.GetString("LOG_LEVEL"),
		DatabaseURL:          viper.GetString("DATABASE_URL"),
		SQLitePath:           viper.GetString("SQLITE_PATH"),
		RedisURL:             viper.GetString("REDIS_URL"),
		NATSURL:              viper.GetString("NATS_URL"),
		WalletAuthSecret:     viper.GetString("WALLET_AUTH_SECRET"),
		AdminWallets:         viper.GetString("ADMIN_WALLETS"),
		IndexerWebhookSecret: viper.GetString("INDEXER_WEBHOOK_SECRET"),
		FrontendURLEndsWith:  viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:          viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:       viper.GetString("HEALTH_ADMIN_KEY"),
		Deployment: Deployment{
			Env:                  deployEnv,
			LaunchFactoryAddress: viper.GetString("LAUNCH_FACTORY_ADDRESS"),
			SaleTemplateAddress:  viper.GetString("SALE_TEMPLATE_ADDRESS"),
			Anomaly: AnomalyThresholds{
				BucketMinutes:        viper.GetInt("OPS_ANOMALY_BUCKET_MINUTES"),
				RefundWarningCount:   viper.GetInt("OPS_REFUND_WARNING_COUNT"),
				RefundCriticalCount:  viper.GetInt("OPS_REFUND_CRITICAL_COUNT"),
				DropoffLookbackHours: viper.GetInt("OPS_DROPOFF_LOOKBACK_HOURS"),
			},
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
