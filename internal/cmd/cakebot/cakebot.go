// Package cakebot parses bot flags and launches the process.
package cakebot

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/CryptaEcto/Discordcakebot/internal/bot"
	"github.com/CryptaEcto/Discordcakebot/internal/bot/console"
	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
	"github.com/CryptaEcto/Discordcakebot/internal/party/service"
	"github.com/CryptaEcto/Discordcakebot/internal/party/storage/sqlite"
	entrypoint "github.com/CryptaEcto/Discordcakebot/internal/platform/cmd"
)

// Config holds cakebot command configuration.
type Config struct {
	// DatabasePath locates the SQLite party store.
	DatabasePath string `env:"CAKEBOT_DB_PATH" envDefault:"cakebot.db"`
	// DisplayName is the actor name used by the console transport.
	DisplayName string `env:"CAKEBOT_CONSOLE_NAME" envDefault:"local"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "Path to the SQLite party store")
	fs.StringVar(&cfg.DisplayName, "name", cfg.DisplayName, "Display name for the console actor")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the bot with the console transport adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCakebot, func(ctx context.Context) error {
		store, err := sqlite.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open party store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close party store: %v", err)
			}
		}()

		manager := service.NewManager(store, domain.DefaultCatalog(), nil, nil)
		gateway := console.NewGateway(os.Stdout)
		router := bot.New(manager, gateway, bot.AllowAll{})

		log.Printf("cakebot console ready db=%s", cfg.DatabasePath)
		return console.Run(ctx, router, os.Stdin, "local", "console", "local-user", cfg.DisplayName)
	})
}
