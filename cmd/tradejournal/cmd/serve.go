package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rustyeddy/tradejournal/internal/api"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator and journal over HTTP",
		Long: `Start the HTTP API. The caller's journal scope is read from the
configured scope header (X-Journal-Scope by default).

Stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withStore(ctx, func(ctx context.Context, s journal.Store) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				srv := api.New(s, api.Config{
					Sizer:       a.cfg.Sizer(),
					Policy:      a.cfg.Policy(),
					ScopeHeader: a.cfg.Server.ScopeHeader,
					Log:         a.log,
				})
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
