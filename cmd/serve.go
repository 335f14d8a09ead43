package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"notetoolbar/events"
	"notetoolbar/web"

	"github.com/rohanthewiz/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewServeCmd(rt **Runtime) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve toolbar previews and protocol links over HTTP",
		Long: `Serve toolbar previews and protocol links over HTTP.

The vault is watched for changes; toolbars of open previews follow note
frontmatter edits, renames and settings changes.

Examples:
  notetoolbar serve --vault ~/notes
  notetoolbar serve --listen :8090 --data_json .obsidian/plugins/note-toolbar/data.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := *rt
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bridge := events.NewBridge(ctx, r.Engine, r.Store, r.Host, r.Config.Debounce)
			defer bridge.Close()

			g, ctx := errgroup.WithContext(ctx)
			if !noWatch {
				w, err := events.NewWatcher(r.Config.Vault, r.Host, bridge)
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(ctx) })
			}

			srv := web.NewServer(r.Config.Listen, r.App())
			g.Go(func() error { return web.Run(srv, r.Config.Listen) })

			// The HTTP server has no shutdown hook; leaving on a signal is enough
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down")
				return context.Canceled
			})

			if err := g.Wait(); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch the vault for changes")
	return cmd
}
