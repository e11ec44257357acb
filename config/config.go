package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	Postgres          Postgres
	Telegram          Telegram
	Redis             Redis
	API               API
	Jobs              Jobs
	GoogleDrive       GoogleDrive
	Portfolio         Portfolio
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"24h"`
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT" envDefault:"5432"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME" envDefault:"300"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"60"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`
}

type Telegram struct {
	Token      string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout time.Duration `env:"TELEGRAM_UPD_TIMEOUT" envDefault:"10s"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type API struct {
	Debug     bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout   time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
	QuotesApi QuotesApi
}

// QuotesApi is the external price source; an empty Url disables price refresh.
type QuotesApi struct {
	Url    string `env:"QUOTES_API_URL" envDefault:""`
	ApiKey string `env:"QUOTES_API_KEY" envDefault:""`
}

type Jobs struct {
	RefreshPricesInterval  time.Duration `env:"REFRESH_PRICES_JOB_INTERVAL" envDefault:"15m"`
	CleanupReportsInterval time.Duration `env:"CLEANUP_REPORTS_JOB_INTERVAL" envDefault:"24h"`
}

// GoogleDrive is optional; without credentials reports are sent as files.
type GoogleDrive struct {
	CredentialsFile string        `env:"GOOGLE_DRIVE_CREDENTIALS_FILE" envDefault:""`
	FileTTL         time.Duration `env:"GOOGLE_DRIVE_FILE_TTL" envDefault:"72h"`
}

type Portfolio struct {
	TopHoldingsLimit   int `env:"TOP_HOLDINGS_LIMIT" envDefault:"5"`
	PriceHistoryDays   int `env:"PRICE_HISTORY_DAYS" envDefault:"30"`
	PortfoliosPerReply int `env:"PORTFOLIOS_PER_REPLY" envDefault:"20"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
