package main

import (
	"github.com/spf13/cobra"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/mcp"
	"github.com/callumgare/media-finder-cli/internal/resolver"
)

func (c *cli) mcpCommand() (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve every request handler as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			container, err := app.NewContainer(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			return mcp.NewServer(c.details.Finder, container, version, mcpFilter(c.details)).ServeStdio()
		},
	}
	opts := resolver.SelectorOptions(c.details, false)
	opts[0].Required = false
	opts[0].Description = "Only expose tools of this source"
	if err := resolver.AddOptions(resolver.CommandSink{Command: cmd}, opts...); err != nil {
		return nil, err
	}
	return cmd, nil
}

func mcpFilter(d *resolver.Details) mcp.Filter {
	var f mcp.Filter
	if d.Source != nil {
		f.SourceID = d.Source.ID
	}
	if d.RequestHandler != nil {
		f.RequestHandlerID = d.RequestHandler.ID
	}
	return f
}
