// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogFormat      string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// MaxConcurrentTx bounds the number of simultaneously open transactions.
	MaxConcurrentTx int64
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// EngineConfig carries the rebalancing engine's tunables.
type EngineConfig struct {
	ForecastSeed         int64
	ForecastLookbackDays int
	ForecastTrees        int
	ForecastMaxDepth     int
	TrainOnStartup       bool

	OverstockWeeks      float64
	MinOverstockQty     int
	ProximityKm         float64
	ProximityBonus      float64
	AffinityWeight      float64
	AcceptanceThreshold float64
	TransferFraction    float64
	OnlineFraction      float64
	CO2Factor           float64

	AffinityThreshold float64
	DeadStockVelocity float64

	RefreshIntervalMinutes int
	Workers                int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = build()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_LOG_FORMAT", "console")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "eco_inventory")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONCURRENT_TX", 10)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 3600)

	viper.SetDefault("ENGINE_FORECAST_SEED", 42)
	viper.SetDefault("ENGINE_FORECAST_LOOKBACK_DAYS", 90)
	viper.SetDefault("ENGINE_FORECAST_TREES", 100)
	viper.SetDefault("ENGINE_FORECAST_MAX_DEPTH", 0)
	viper.SetDefault("ENGINE_TRAIN_ON_STARTUP", false)
	viper.SetDefault("ENGINE_OVERSTOCK_WEEKS", 4.0)
	viper.SetDefault("ENGINE_MIN_OVERSTOCK_QTY", 10)
	viper.SetDefault("ENGINE_PROXIMITY_KM", 50.0)
	viper.SetDefault("ENGINE_PROXIMITY_BONUS", 200.0)
	viper.SetDefault("ENGINE_AFFINITY_WEIGHT", 5.0)
	viper.SetDefault("ENGINE_ACCEPTANCE_THRESHOLD", 100.0)
	viper.SetDefault("ENGINE_TRANSFER_FRACTION", 0.3)
	viper.SetDefault("ENGINE_ONLINE_FRACTION", 0.5)
	viper.SetDefault("ENGINE_CO2_FACTOR", 0.2)
	viper.SetDefault("ENGINE_AFFINITY_THRESHOLD", 5.0)
	viper.SetDefault("ENGINE_DEAD_STOCK_VELOCITY", 2.0)
	viper.SetDefault("ENGINE_REFRESH_INTERVAL_MINUTES", 0)
	viper.SetDefault("ENGINE_WORKERS", 4)

	viper.SetDefault("STORAGE_ENABLED", false)
	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_SECRET_KEY", "")
	viper.SetDefault("STORAGE_BUCKET", "eco-inventory")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_USE_SSL", true)
	viper.SetDefault("STORAGE_PREFIX", "reports/")
}

func build() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			LogFormat:      viper.GetString("SERVER_LOG_FORMAT"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:          viper.GetString("DB_DRIVER"),
			URL:             viper.GetString("DATABASE_URL"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConcurrentTx: viper.GetInt64("DB_MAX_CONCURRENT_TX"),
		},
		Cache: CacheConfig{
			Enabled:            viper.GetBool("CACHE_ENABLED"),
			RedisURL:           viper.GetString("REDIS_URL"),
			RedisHost:          viper.GetString("REDIS_HOST"),
			RedisPort:          viper.GetString("REDIS_PORT"),
			RedisPassword:      viper.GetString("REDIS_PASSWORD"),
			RedisDB:            viper.GetInt("REDIS_DB"),
			ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Engine: EngineConfig{
			ForecastSeed:           viper.GetInt64("ENGINE_FORECAST_SEED"),
			ForecastLookbackDays:   viper.GetInt("ENGINE_FORECAST_LOOKBACK_DAYS"),
			ForecastTrees:          viper.GetInt("ENGINE_FORECAST_TREES"),
			ForecastMaxDepth:       viper.GetInt("ENGINE_FORECAST_MAX_DEPTH"),
			TrainOnStartup:         viper.GetBool("ENGINE_TRAIN_ON_STARTUP"),
			OverstockWeeks:         viper.GetFloat64("ENGINE_OVERSTOCK_WEEKS"),
			MinOverstockQty:        viper.GetInt("ENGINE_MIN_OVERSTOCK_QTY"),
			ProximityKm:            viper.GetFloat64("ENGINE_PROXIMITY_KM"),
			ProximityBonus:         viper.GetFloat64("ENGINE_PROXIMITY_BONUS"),
			AffinityWeight:         viper.GetFloat64("ENGINE_AFFINITY_WEIGHT"),
			AcceptanceThreshold:    viper.GetFloat64("ENGINE_ACCEPTANCE_THRESHOLD"),
			TransferFraction:       viper.GetFloat64("ENGINE_TRANSFER_FRACTION"),
			OnlineFraction:         viper.GetFloat64("ENGINE_ONLINE_FRACTION"),
			CO2Factor:              viper.GetFloat64("ENGINE_CO2_FACTOR"),
			AffinityThreshold:      viper.GetFloat64("ENGINE_AFFINITY_THRESHOLD"),
			DeadStockVelocity:      viper.GetFloat64("ENGINE_DEAD_STOCK_VELOCITY"),
			RefreshIntervalMinutes: viper.GetInt("ENGINE_REFRESH_INTERVAL_MINUTES"),
			Workers:                viper.GetInt("ENGINE_WORKERS"),
		},
		Storage: StorageConfig{
			Enabled:   viper.GetBool("STORAGE_ENABLED"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
		},
	}
}
