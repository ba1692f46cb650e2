package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Reaper     Reaper `yaml:"reaper"`
	Redis      Redis  `yaml:"redis"`
}

type Reaper struct {
	SweepInterval time.Duration `yaml:"sweep-interval" env:"REAPER_SWEEP_INTERVAL" env-default:"60s"`
	StaleAfter    time.Duration `yaml:"stale-after" env:"REAPER_STALE_AFTER" env-default:"30m"`
}

// Redis configures the finished-game archive. An empty host disables
// archiving entirely; live games never touch redis.
type Redis struct {
	Host       string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port       string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ArchiveTTL time.Duration `yaml:"archive-ttl" env:"REDIS_ARCHIVE_TTL" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
