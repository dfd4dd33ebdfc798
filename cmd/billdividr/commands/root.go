package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/billdividr/internal/config"
	"github.com/susu3304/billdividr/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "billdividr",
		Short:         "Shared expense tracking and settle-up",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.AppEnv, cfg.LogLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.AddCommand(serveCmd(), migrateCmd(), settleCmd())
	return root
}

func Execute() error {
	return newRootCmd().Execute()
}
