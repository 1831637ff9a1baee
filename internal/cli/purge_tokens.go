package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/questeded/quested/internal/config"
	"github.com/questeded/quested/internal/entrypoint"
)

// PurgeTokensCommand deletes expired refresh and one-time auth tokens once.
type PurgeTokensCommand struct {
	BackendURL string
	AnonKey    string
	Timeout    time.Duration
	Out        io.Writer

	cfg *config.Config
}

func NewPurgeTokensCommand(cfg *config.Config) *PurgeTokensCommand {
	return &PurgeTokensCommand{cfg: cfg, Out: os.Stdout}
}

func (cmd *PurgeTokensCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("purge-tokens", flag.ContinueOnError)

	fs.StringVar(&cmd.BackendURL, "backend", cmd.cfg.Backend.URL, "Backend URL (sqlite://<path> or postgres://...)")
	fs.StringVar(&cmd.AnonKey, "anon-key", cmd.cfg.Backend.AnonKey, "Backend anon key")
	fs.DurationVar(&cmd.Timeout, "timeout", time.Minute, "Maximum time to spend purging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s purge-tokens [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete expired refresh, confirmation and recovery tokens.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.BackendURL == "" {
		fs.Usage()
		return fmt.Errorf("backend URL is required")
	}
	if cmd.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

func (cmd *PurgeTokensCommand) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	cfg := *cmd.cfg
	cfg.Backend.URL = cmd.BackendURL
	cfg.Backend.AnonKey = cmd.AnonKey
	cfg.Redis.Addr = ""

	client, log, err := entrypoint.OpenBackend(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	defer log.Sync()
	defer client.Close()

	purged, err := client.Auth.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge tokens: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Purged %d expired tokens\n", purged)
	return nil
}
