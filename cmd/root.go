package cmd

import (
	"notetoolbar/config"

	"github.com/rohanthewiz/logger"
	"github.com/spf13/cobra"
)

// annotationRuntime set to "none" keeps a command from opening the runtime
const annotationRuntime = "runtime"

// NewRootCmd builds the notetoolbar command tree. The runtime is opened
// once before any subcommand runs and closed after it returns.
func NewRootCmd() *cobra.Command {
	var (
		configFile string
		cfg        *config.Config
		rt         *Runtime
	)

	root := &cobra.Command{
		Use:           "notetoolbar",
		Short:         "Per-note toolbars for a markdown vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML config file")
	flags.String("vault", ".", "vault directory")
	flags.String("db", "", "DuckDB settings file")
	flags.String("data_json", "", "read settings from a data.json file instead of the db")
	flags.String("listen", "127.0.0.1:8090", "web server address")
	flags.Duration("debounce", 0, "quiet period before metadata changes reconcile")
	flags.String("log_level", "info", "debug, info, warn or error")
	flags.String("platform", "desktop", "desktop, mobile or tablet")
	flags.String("plugin_id", "note-toolbar", "host part of protocol links")
	flags.String("scheme", "obsidian", "scheme of protocol links")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile, cmd.Root().PersistentFlags())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.SetLogLevel(cfg.LogLevel)

		if cmd.Annotations[annotationRuntime] == "none" {
			return nil
		}
		rt, err = Open(cfg)
		return err
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if rt == nil {
			return nil
		}
		return rt.Close()
	}

	root.AddCommand(
		NewServeCmd(&rt),
		NewRenderCmd(&rt),
		NewResolveCmd(&rt),
		NewMigrateCmd(&cfg),
		NewOpenCmd(&rt),
	)
	return root
}
