// /internal/config/config.go
package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`

	LavalinkHost string `env:"LAVALINK_HOST" envDefault:"localhost"`
	LavalinkPort int    `env:"LAVALINK_PORT" envDefault:"2333"`
	LavalinkPass string `env:"LAVALINK_PASS,required"`

	StoragePath string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	// AutoplayPageSize bounds the related-content query issued when the
	// queue runs out and autoplay is enabled.
	AutoplayPageSize int `env:"AUTOPLAY_PAGE_SIZE" envDefault:"10"`
}

func New() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// LavalinkAddr returns the host:port of the audio node.
func (c *Config) LavalinkAddr() string {
	return fmt.Sprintf("%s:%d", c.LavalinkHost, c.LavalinkPort)
}
