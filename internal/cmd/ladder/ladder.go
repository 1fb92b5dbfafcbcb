// Package ladder parses ladder daemon flags and launches the daemon.
package ladder

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/ladder/internal/platform/cmd"
	"github.com/louisbranch/ladder/internal/services/ladder/app"
)

// Config holds ladder command configuration.
type Config struct {
	DBPath string `env:"LADDER_DB_PATH" envDefault:"data/ladder.db"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the ladder SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the ladder daemon.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceLadder, func(runCtx context.Context) error {
		return app.Run(runCtx, cfg.DBPath)
	})
}
