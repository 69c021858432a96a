package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finassist/internal/backend"
	"finassist/internal/cli"
	"finassist/internal/config"
	"finassist/internal/log"
	"finassist/internal/services"
)

var (
	flagConfig   string
	flagLogLevel string
	flagUser     string
	flagMonth    string
)

var rootCmd = &cobra.Command{
	Use:           "finctl",
	Short:         "Administer the finassist data store",
	Long:          "Run migrations and inspect summaries, history and alerts without the HTTP server.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if flagConfig != "" {
			return os.Setenv("FINASSIST_CONFIG", flagConfig)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (overrides FINASSIST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

// addUserMonthFlags registers the --user and --month flags shared by the
// per-user commands.
func addUserMonthFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagUser, "user", "u", "", "User id")
	cmd.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	_ = cmd.MarkFlagRequired("user")
}

// session is an opened backend plus the services built on it.
type session struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.BackendResult
	finance *services.FinanceService
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := cli.LoadConfig(false)
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(flagLogLevel, log.ComponentCLI)
	res, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	if res.Store == nil {
		_ = res.Cleanup()
		return nil, fmt.Errorf("data backend %q has no store", cfg.DataBackend)
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		backend: res,
		finance: services.NewFinanceService(res.Store, nil, nil),
	}, nil
}

func (s *session) Close() {
	if err := s.backend.Cleanup(); err != nil {
		s.logger.Error("Backend cleanup failed", "error", err)
	}
}
