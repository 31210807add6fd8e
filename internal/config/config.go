package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7000"`
	Redis      Redis  `yaml:"redis"`
	Auth       Auth   `yaml:"auth"`
	Game       Game   `yaml:"game"`
	Socket     Socket `yaml:"socket"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt-secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER" env-default:"tictactoe-lobby"`
	Audience  string `yaml:"audience" env:"JWT_AUDIENCE" env-default:"tictactoe-clients"`

	// AllowAnonymous lets clients without a token connect as spectators.
	AllowAnonymous bool `yaml:"allow-anonymous" env:"ALLOW_ANONYMOUS"`
}

type Game struct {
	// AutoCreateUnknown makes a move on an unknown game id create an empty game.
	AutoCreateUnknown bool          `yaml:"auto-create-unknown" env:"GAME_AUTO_CREATE_UNKNOWN"`
	ArchiveTTL        time.Duration `yaml:"archive-ttl" env:"GAME_ARCHIVE_TTL" env-default:"168h"`
}

type Socket struct {
	MessagesPerSecond float64 `yaml:"messages-per-second" env:"SOCKET_MESSAGES_PER_SECOND" env-default:"20"`
	Burst             int     `yaml:"burst" env:"SOCKET_BURST" env-default:"40"`
	SendBuffer        int     `yaml:"send-buffer" env:"SOCKET_SEND_BUFFER" env-default:"64"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if config.Auth.JWTSecret == "" && !config.Auth.AllowAnonymous {
		return nil, errors.New("auth: jwt-secret is required when anonymous connections are disabled")
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
