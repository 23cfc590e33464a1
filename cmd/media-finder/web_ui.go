package main

import (
	"github.com/spf13/cobra"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/resolver"
	httptransport "github.com/callumgare/media-finder-cli/internal/transport/http"
)

func (c *cli) webUICommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "web-ui",
		Short: "Serve a browser UI for building and running requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			container, err := app.NewContainer(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			srv := httptransport.NewServer(c.details.Finder, container, container.Secrets)
			return httptransport.Serve(ctx, c.cfg.WebUIAddr, srv.Handler())
		},
	}
	if err := resolver.AddOptions(resolver.CommandSink{Command: cmd}, resolver.PluginsOption()); err != nil {
		return nil, err
	}
	return cmd, nil
}
