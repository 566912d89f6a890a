// backend/internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/merchsignal/backend/internal/domain"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	App        AppConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Storefront StorefrontConfig
	DriveFeed  DriveFeedConfig
	Insights   InsightsConfig
	Pipeline   PipelineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	DataDir   string
	OutputDir string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	ResultTTLSecs int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type StorefrontConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
}

type DriveFeedConfig struct {
	Enabled         bool
	Port            string
	CredentialsFile string
	FolderID        string
	DownloadDir     string
}

type InsightsConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
}

// PipelineConfig mirrors domain.PipelineOptions so every analytical knob is
// tunable from the environment.
type PipelineConfig struct {
	FeeGSTRate              float64
	MinARIMAHistoryDays     int
	ForecastHorizonDays     int
	WMAWindowDays           int
	MinVelocity             float64
	LeadTimeBufferDays      int
	DemandUncertaintyFactor float64
	SeasonalPeriodMonths    int
	MinSeasonalMonths       int
	MinSARIMAMonths         int
	TrendDelta              float64
	StrengthThreshold       float64
	HighStockDays           float64
	LowSeasonIndex          float64
	LossPerDayThreshold     float64
	MinDaysForUrgency       float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		defaults := domain.DefaultPipelineOptions()

		// Set default values
		viper.SetDefault("MS_SERVER_PORT", "8080")
		viper.SetDefault("MS_SERVER_MODE", "debug")
		viper.SetDefault("MS_SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("MS_DB_ENABLED", false)
		viper.SetDefault("MS_DB_HOST", "localhost")
		viper.SetDefault("MS_DB_PORT", "5432")
		viper.SetDefault("MS_DB_USER", "postgres")
		viper.SetDefault("MS_DB_PASSWORD", "postgres")
		viper.SetDefault("MS_DB_NAME", "merchsignal")
		viper.SetDefault("MS_DB_SSLMODE", "disable")
		viper.SetDefault("MS_APP_DATA_DIR", "./data/input")
		viper.SetDefault("MS_APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("MS_CACHE_ENABLED", false)
		viper.SetDefault("MS_REDIS_URL", "")
		viper.SetDefault("MS_REDIS_HOST", "127.0.0.1")
		viper.SetDefault("MS_REDIS_PORT", "6379")
		viper.SetDefault("MS_REDIS_PASSWORD", "")
		viper.SetDefault("MS_REDIS_DB", 0)
		viper.SetDefault("MS_CACHE_RESULT_TTL_SECONDS", 300)
		viper.SetDefault("MS_STORAGE_ENABLED", false)
		viper.SetDefault("MS_STORAGE_ENDPOINT", "")
		viper.SetDefault("MS_STORAGE_BUCKET", "merchsignal-exports")
		viper.SetDefault("MS_STORAGE_USE_SSL", true)
		viper.SetDefault("MS_SHOPIFY_API_VERSION", "2024-10")
		viper.SetDefault("MS_DRIVE_ENABLED", false)
		viper.SetDefault("MS_DRIVE_PORT", "8081")
		viper.SetDefault("MS_DRIVE_CREDENTIALS_FILE", "credentials.json")
		viper.SetDefault("MS_DRIVE_DOWNLOAD_DIR", "./data/input")
		viper.SetDefault("MS_INSIGHTS_ENABLED", false)
		viper.SetDefault("MS_INSIGHTS_BASE_URL", "")
		viper.SetDefault("MS_INSIGHTS_MODEL", "")
		viper.SetDefault("MS_FEE_GST_RATE", defaults.FeeGSTRate)
		viper.SetDefault("MS_MIN_ARIMA_HISTORY_DAYS", defaults.MinARIMAHistoryDays)
		viper.SetDefault("MS_FORECAST_HORIZON_DAYS", defaults.ForecastHorizonDays)
		viper.SetDefault("MS_WMA_WINDOW_DAYS", defaults.WMAWindowDays)
		viper.SetDefault("MS_MIN_VELOCITY_FOR_RISK", defaults.MinVelocity)
		viper.SetDefault("MS_LEAD_TIME_BUFFER_DAYS", defaults.LeadTimeBufferDays)
		viper.SetDefault("MS_DEMAND_UNCERTAINTY_FACTOR", defaults.DemandUncertaintyFactor)
		viper.SetDefault("MS_SEASONAL_PERIOD", defaults.SeasonalPeriodMonths)
		viper.SetDefault("MS_MIN_SEASONAL_MONTHS", defaults.MinSeasonalMonths)
		viper.SetDefault("MS_MIN_SARIMA_MONTHS", defaults.MinSARIMAMonths)
		viper.SetDefault("MS_TREND_DELTA", defaults.TrendDelta)
		viper.SetDefault("MS_STRENGTH_THRESHOLD", defaults.StrengthThreshold)
		viper.SetDefault("MS_HIGH_STOCK_DAYS", defaults.HighStockDays)
		viper.SetDefault("MS_LOW_SEASON_INDEX", defaults.LowSeasonIndex)
		viper.SetDefault("MS_LOSS_PER_DAY_THRESHOLD", defaults.LossPerDayThreshold)
		viper.SetDefault("MS_MIN_DAYS_FOR_URGENCY", defaults.MinDaysForUrgency)

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("MS_APP_DATA_DIR"))
		ensureDir(viper.GetString("MS_APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("MS_SERVER_PORT"),
				Mode:           viper.GetString("MS_SERVER_MODE"),
				ReadTimeout:    viper.GetInt("MS_SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("MS_SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("MS_SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("MS_DB_ENABLED"),
				Host:     viper.GetString("MS_DB_HOST"),
				Port:     viper.GetString("MS_DB_PORT"),
				User:     viper.GetString("MS_DB_USER"),
				Password: viper.GetString("MS_DB_PASSWORD"),
				DBName:   viper.GetString("MS_DB_NAME"),
				SSLMode:  viper.GetString("MS_DB_SSLMODE"),
			},
			App: AppConfig{
				DataDir:   viper.GetString("MS_APP_DATA_DIR"),
				OutputDir: viper.GetString("MS_APP_OUTPUT_DIR"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("MS_CACHE_ENABLED"),
				RedisURL:      viper.GetString("MS_REDIS_URL"),
				RedisHost:     viper.GetString("MS_REDIS_HOST"),
				RedisPort:     viper.GetString("MS_REDIS_PORT"),
				RedisPassword: viper.GetString("MS_REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("MS_REDIS_DB"),
				ResultTTLSecs: viper.GetInt("MS_CACHE_RESULT_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("MS_STORAGE_ENABLED"),
				Endpoint:  viper.GetString("MS_STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("MS_STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("MS_STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("MS_STORAGE_BUCKET"),
				UseSSL:    viper.GetBool("MS_STORAGE_USE_SSL"),
			},
			Storefront: StorefrontConfig{
				ShopDomain:  viper.GetString("MS_SHOPIFY_SHOP_DOMAIN"),
				AccessToken: viper.GetString("MS_SHOPIFY_ACCESS_TOKEN"),
				APIVersion:  viper.GetString("MS_SHOPIFY_API_VERSION"),
			},
			DriveFeed: DriveFeedConfig{
				Enabled:         viper.GetBool("MS_DRIVE_ENABLED"),
				Port:            viper.GetString("MS_DRIVE_PORT"),
				CredentialsFile: viper.GetString("MS_DRIVE_CREDENTIALS_FILE"),
				FolderID:        viper.GetString("MS_DRIVE_FOLDER_ID"),
				DownloadDir:     viper.GetString("MS_DRIVE_DOWNLOAD_DIR"),
			},
			Insights: InsightsConfig{
				Enabled: viper.GetBool("MS_INSIGHTS_ENABLED"),
				BaseURL: viper.GetString("MS_INSIGHTS_BASE_URL"),
				APIKey:  viper.GetString("MS_INSIGHTS_API_KEY"),
				Model:   viper.GetString("MS_INSIGHTS_MODEL"),
			},
			Pipeline: PipelineConfig{
				FeeGSTRate:              viper.GetFloat64("MS_FEE_GST_RATE"),
				MinARIMAHistoryDays:     viper.GetInt("MS_MIN_ARIMA_HISTORY_DAYS"),
				ForecastHorizonDays:     viper.GetInt("MS_FORECAST_HORIZON_DAYS"),
				WMAWindowDays:           viper.GetInt("MS_WMA_WINDOW_DAYS"),
				MinVelocity:             viper.GetFloat64("MS_MIN_VELOCITY_FOR_RISK"),
				LeadTimeBufferDays:      viper.GetInt("MS_LEAD_TIME_BUFFER_DAYS"),
				DemandUncertaintyFactor: viper.GetFloat64("MS_DEMAND_UNCERTAINTY_FACTOR"),
				SeasonalPeriodMonths:    viper.GetInt("MS_SEASONAL_PERIOD"),
				MinSeasonalMonths:       viper.GetInt("MS_MIN_SEASONAL_MONTHS"),
				MinSARIMAMonths:         viper.GetInt("MS_MIN_SARIMA_MONTHS"),
				TrendDelta:              viper.GetFloat64("MS_TREND_DELTA"),
				StrengthThreshold:       viper.GetFloat64("MS_STRENGTH_THRESHOLD"),
				HighStockDays:           viper.GetFloat64("MS_HIGH_STOCK_DAYS"),
				LowSeasonIndex:          viper.GetFloat64("MS_LOW_SEASON_INDEX"),
				LossPerDayThreshold:     viper.GetFloat64("MS_LOSS_PER_DAY_THRESHOLD"),
				MinDaysForUrgency:       viper.GetFloat64("MS_MIN_DAYS_FOR_URGENCY"),
			},
		}
	})

	return instance
}

// PipelineOptions merges the environment overrides onto the analytical
// defaults.
func (c *Config) PipelineOptions() domain.PipelineOptions {
	opts := domain.DefaultPipelineOptions()
	opts.FeeGSTRate = c.Pipeline.FeeGSTRate
	opts.MinARIMAHistoryDays = c.Pipeline.MinARIMAHistoryDays
	opts.ForecastHorizonDays = c.Pipeline.ForecastHorizonDays
	opts.WMAWindowDays = c.Pipeline.WMAWindowDays
	opts.MinVelocity = c.Pipeline.MinVelocity
	opts.LeadTimeBufferDays = c.Pipeline.LeadTimeBufferDays
	opts.DemandUncertaintyFactor = c.Pipeline.DemandUncertaintyFactor
	opts.SeasonalPeriodMonths = c.Pipeline.SeasonalPeriodMonths
	opts.MinSeasonalMonths = c.Pipeline.MinSeasonalMonths
	opts.MinSARIMAMonths = c.Pipeline.MinSARIMAMonths
	opts.TrendDelta = c.Pipeline.TrendDelta
	opts.StrengthThreshold = c.Pipeline.StrengthThreshold
	opts.HighStockDays = c.Pipeline.HighStockDays
	opts.LowSeasonIndex = c.Pipeline.LowSeasonIndex
	opts.LossPerDayThreshold = c.Pipeline.LossPerDayThreshold
	opts.MinDaysForUrgency = c.Pipeline.MinDaysForUrgency
	return opts
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
