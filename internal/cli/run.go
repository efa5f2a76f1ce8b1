package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dmitrijs2005/passwords/internal/config"
	"github.com/dmitrijs2005/passwords/internal/logging"
	"github.com/spf13/cobra"
)

type runner interface {
	Run(ctx context.Context) error
	Close() error
}

var newApp = func(ctx context.Context, cfg *config.Config, logger logging.Logger) (runner, error) {
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// NewRunCommand creates the run command. Its flags belong to the config
// package, which reads them from os.Args.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one repair pass over every stored revision",
		Long: `Run one repair pass over every stored revision.

Flags:
  -c, -config string   JSON config file
  -d string            PostgreSQL DSN
  -k string            keys file
  -p int               page size
  -l string            log level (debug, info, warn, error)
  -t string            revision kind (all, password, folder, tag)
  -b string            safety backup before repairing (file, s3)
  -o string            backup directory
  -s string            backup passphrase, "-" to prompt for it
  -u, -w, -n, -g, -e   S3 user, password, bucket, region, endpoint

Example:
  passwords-repair run -d postgres://localhost/passwords -k /etc/passwords/keys.json -b file`,
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if slices.Contains(args, "-h") || slices.Contains(args, "--help") {
				return cmd.Help()
			}
			return runRepair(cmd.Context(), cmd.ErrOrStderr())
		},
	}
}

func runRepair(parent context.Context, w io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(w, cfg.LogLevel)
	if err != nil {
		return err
	}

	if cfg.BackupPassphrase == config.PassphrasePrompt {
		if cfg.BackupPassphrase, err = promptPassphrase(w); err != nil {
			return err
		}
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stop := initSignalHandler(ctx, cancel, logger)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error(ctx, "close", "error", err)
		}
	}()

	return app.Run(ctx)
}

// initSignalHandler cancels the run on SIGINT or SIGTERM. The returned func
// stops listening.
func initSignalHandler(ctx context.Context, cancel context.CancelFunc, logger logging.Logger) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			logger.Warn(ctx, "received signal, stopping after the current revision", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return func() { signal.Stop(sigs) }
}
