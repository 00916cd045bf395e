package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	LogLevel          string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Production        bool      `yaml:"production" env:"PRODUCTION" env-default:"false"`
	HTTPPort          string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	CORSOrigins       []string  `yaml:"cors-origins" env:"CORS_ORIGINS" env-separator:","`
	Storage           string    `yaml:"storage" env:"STORAGE" env-default:"redis"`
	Redis             Redis     `yaml:"redis"`
	Postgres          Postgres  `yaml:"postgres"`
	SQLiteStoragePath string    `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"./users.db"`
	JWTSecretKey      string    `yaml:"jwt-secret-key" env:"JWT_SECRET_KEY" env-required:"true"`
	Websocket         Websocket `yaml:"websocket"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

type Websocket struct {
	SendBuffer int   `yaml:"send-buffer" env:"WEBSOCKET_SEND_BUFFER" env-default:"64"`
	ReadLimit  int64 `yaml:"read-limit" env:"WEBSOCKET_READ_LIMIT" env-default:"4096"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

func (that *Config) Validate() error {
	switch that.Storage {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if that.Postgres.DSN == "" {
			return fmt.Errorf("postgres storage needs postgres.dsn")
		}
	default:
		return fmt.Errorf("unknown storage %q", that.Storage)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
