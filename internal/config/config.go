package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/storefront/internal/log"
)

type Application struct {
	Env       string        `mapstructure:"env"        json:"env"`
	Host      string        `mapstructure:"host"       json:"host"`
	SecretKey string        `mapstructure:"secret_key" json:"-"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"  json:"token_ttl"`
	Port      int           `mapstructure:"port"       json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
}

type Cache struct {
	Host         string `mapstructure:"host"           json:"host"`
	Password     string `mapstructure:"password"       json:"-"`
	Database     int    `mapstructure:"database"       json:"database"`
	PoolSize     int    `mapstructure:"pool_size"      json:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns" json:"min_idle_conns"`
	Port         uint16 `mapstructure:"port"           json:"port"`
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

type Session struct {
	CookieName string        `mapstructure:"cookie_name" json:"cookie_name"`
	Secure     bool          `mapstructure:"secure"      json:"secure"`
	TTL        time.Duration `mapstructure:"ttl"         json:"ttl"`
}

type Payment struct {
	BaseURL   string        `mapstructure:"base_url"   json:"base_url"`
	SecretKey string        `mapstructure:"secret_key" json:"-"`
	Currency  string        `mapstructure:"currency"   json:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"    json:"timeout"`
}

type Notification struct {
	Workers int `mapstructure:"workers" json:"workers"`
}

type Config struct {
	Database     `mapstructure:"db"          json:"db"`
	Cache        `mapstructure:"cache"       json:"cache"`
	Application  `mapstructure:"application" json:"application"`
	Otel         `mapstructure:"otel"        json:"otel"`
	Session      `mapstructure:"session"     json:"session"`
	Payment      `mapstructure:"payment"      json:"payment"`
	Notification `mapstructure:"notification" json:"notification"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults() {
	viper.SetDefault("application.env", "production")
	viper.SetDefault("application.host", "0.0.0.0")
	viper.SetDefault("application.port", 8080)
	viper.SetDefault("application.token_ttl", 30*time.Minute)
	viper.SetDefault("db.migration_path", "file://migrations")
	viper.SetDefault("db.max_connections", 10)
	viper.SetDefault("db.min_connections", 2)
	viper.SetDefault("cache.pool_size", 20)
	viper.SetDefault("cache.min_idle_conns", 2)
	viper.SetDefault("otel.host", "otel-collector")
	viper.SetDefault("otel.port", 4317)
	viper.SetDefault("session.cookie_name", "sessionid")
	viper.SetDefault("session.ttl", 14*24*time.Hour)
	viper.SetDefault("payment.currency", "usd")
	viper.SetDefault("payment.timeout", 30*time.Second)
	viper.SetDefault("notification.workers", 4)
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main InitConfig").
			Str(log.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger = logger.With().Str(log.KeyProcess, "loading dotenv").Logger()
		logger.Info().Msg("loading dotenv")
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("failed loading dotenv with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("loaded dotenv")

		setDefaults()
		viper.SetConfigName(filename)
		viper.AddConfigPath("./env")
		viper.SetConfigType("yaml")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		logger = logger.With().Str(log.KeyProcess, "reading config").Logger()
		logger.Info().Msg("reading config")
		err := viper.ReadInConfig()
		if err != nil {
			err = fmt.Errorf("error when reading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("read config")

		logger = logger.With().Str(log.KeyProcess, "unmarshaling config").Logger()
		logger.Info().Msg("unmarshaling config")
		cfg := Config{}
		err = viper.Unmarshal(&cfg)
		if err != nil {
			err = fmt.Errorf("error unmarshaling config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = &cfg
		logger = logger.With().Any(log.KeyConfig, cfg).Logger()
		logger.Info().Msg("unmarshaled config")
	})
	return config
}
