package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/resolver"
	"github.com/callumgare/media-finder-cli/mediafinder"
	"github.com/callumgare/media-finder-cli/schema"
)

const (
	formatJSON    = "json"
	formatPretty  = "pretty"
	formatOnline  = "online"
	formatArchive = "archive"
)

var errSelectorsRequired = errors.New("a source and request handler must be selected")

var outputFormats = []string{formatJSON, formatPretty, formatOnline, formatArchive}

func (c *cli) runCommand() (*cobra.Command, error) {
	var requestOpts []resolver.Option
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the first page of media for a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, requestOpts)
		},
	}

	sink := resolver.CommandSink{Command: cmd}
	if err := resolver.AddOptions(sink, resolver.SelectorOptions(c.details, true)...); err != nil {
		return nil, err
	}
	if err := resolver.AddOptions(sink, c.runOptions()...); err != nil {
		return nil, err
	}
	if h := c.details.RequestHandler; h != nil {
		opts, err := resolver.SynthesizeFlags(h.RequestSchema, sink)
		if err != nil {
			return nil, err
		}
		requestOpts = opts
	}
	return cmd, nil
}

func (c *cli) runOptions() []resolver.Option {
	format := formatJSON
	if c.tty {
		format = formatPretty
	}
	modes := make([]string, len(mediafinder.CacheModes))
	for i, m := range mediafinder.CacheModes {
		modes[i] = string(m)
	}
	return []resolver.Option{
		{
			Name:        "outputFormat",
			Short:       "f",
			ValueType:   string(schema.TypeString),
			Description: "How to present the response",
			Default:     format,
			HasDefault:  true,
			Choices:     outputFormats,
		},
		{
			Name:        "cacheNetworkRequests",
			ValueType:   string(schema.TypeString),
			Description: "When to reuse cached upstream responses",
			Default:     string(mediafinder.CacheAlways),
			HasDefault:  true,
			Choices:     modes,
		},
		{
			Name:        "secretsSet",
			ValueType:   string(schema.TypeString),
			Description: "Name of the secrets set to use",
		},
	}
}

func (c *cli) run(cmd *cobra.Command, requestOpts []resolver.Option) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	src, h := c.details.Source, c.details.RequestHandler
	if src == nil || h == nil {
		return errSelectorsRequired
	}

	request := resolver.RequestFromFlags(flags, requestOpts)
	request["source"] = src.ID
	request["queryType"] = h.ID

	mode, err := mediafinder.ParseCacheMode(resolver.StringValue(flags, "cacheNetworkRequests"))
	if err != nil {
		return err
	}

	container, err := app.NewContainer(ctx, c.cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	resp, err := container.RunQuery(ctx, c.details.Finder, app.QueryInput{
		Request:    request,
		SecretsSet: resolver.StringValue(flags, "secretsSet"),
		CacheMode:  mode,
	})
	if err != nil {
		return err
	}
	return c.render(ctx, container, resolver.StringValue(flags, "outputFormat"), src.ID, h.ID, resp)
}
