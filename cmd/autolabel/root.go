package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshsymonds/autolabel/internal/config"
	"github.com/joshsymonds/autolabel/internal/runtime"
)

// app carries what PersistentPreRunE resolved to the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "autolabel",
		Short: "Label a sender's mail by driving Gmail's filter settings",
		Long: `autolabel creates or extends a Gmail filter for the sender of the message
you point at. It drives the filter settings screen in a Chrome tab, tags each
filter it creates with an inert marker so later runs extend the same filter,
and leaves the final label choice to you.

Examples:
  autolabel watch                       # Alt+right-click a message in the tab
  autolabel run --origin 'span.gD'      # one shot on the open message
  autolabel verify --label Newsletter --sender jane@example.com`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/autolabel/config.yaml)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "console", "log format: console, json")
	flags.String("marker-prefix", "", "prefix of the marker written into filters")

	root.AddCommand(
		newRunCmd(a),
		newWatchCmd(a),
		newExtractCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := runtime.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
