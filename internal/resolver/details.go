package resolver

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/callumgare/media-finder-cli/mediafinder"
)

// PluginLoader loads one plugin file.
type PluginLoader func(ctx context.Context, path string) (mediafinder.Plugin, error)

// FinderFactory builds the source registry from loaded plugins.
type FinderFactory func(plugins []mediafinder.Plugin) (*mediafinder.Finder, error)

// Options configures a Context. Zero fields fall back to the defaults.
type Options struct {
	Subcommands []string
	LoadPlugin  PluginLoader
	NewFinder   FinderFactory
}

// Details is the outcome of selector resolution.
type Details struct {
	Selectors Selectors
	Finder    *mediafinder.Finder
	Plugins   []mediafinder.Plugin
	// Source is nil when no source was selected.
	Source *mediafinder.Source
	// RequestHandler is nil when no handler was selected.
	RequestHandler *mediafinder.RequestHandler
}

// Context resolves selectors for one process invocation. Resolution runs
// at most once; later callers get the cached result.
type Context struct {
	args []string
	opts Options

	once    sync.Once
	details *Details
	err     error
}

// NewContext creates a resolution context for the given arguments, without
// the program name.
func NewContext(args []string, opts Options) *Context {
	if opts.Subcommands == nil {
		opts.Subcommands = Subcommands
	}
	if opts.LoadPlugin == nil {
		opts.LoadPlugin = mediafinder.LoadPlugin
	}
	if opts.NewFinder == nil {
		opts.NewFinder = func(plugins []mediafinder.Plugin) (*mediafinder.Finder, error) {
			return mediafinder.New(mediafinder.WithPlugins(plugins...))
		}
	}
	return &Context{args: args, opts: opts}
}

// ResolveSelectors parses selectors, loads plugins, builds the registry and
// looks up the selected source and request handler.
func (c *Context) ResolveSelectors(ctx context.Context) (*Details, error) {
	c.once.Do(func() {
		c.details, c.err = c.resolve(ctx)
	})
	return c.details, c.err
}

func (c *Context) resolve(ctx context.Context) (*Details, error) {
	sel := ParseSelectors(c.args, c.opts.Subcommands)

	plugins, err := loadPlugins(ctx, sel.PluginPaths, c.opts.LoadPlugin)
	if err != nil {
		return nil, err
	}
	finder, err := c.opts.NewFinder(plugins)
	if err != nil {
		return nil, WrapContractError(StageSelectors, ErrCodeRegistry, "build registry", err)
	}

	d := &Details{Selectors: sel, Finder: finder, Plugins: plugins}
	if sel.SourceID == "" {
		return d, nil
	}
	src, ok := finder.Source(sel.SourceID)
	if !ok {
		return nil, WrapContractError(StageSelectors, ErrCodeUnknownSource, "resolve source",
			fmt.Errorf("%w: could not find source with id %q", ErrUnknownSelector, sel.SourceID))
	}
	d.Source = src

	if sel.RequestHandlerID == "" {
		return d, nil
	}
	h, ok := src.RequestHandler(sel.RequestHandlerID)
	if !ok {
		return nil, WrapContractError(StageSelectors, ErrCodeUnknownRequestHandler, "resolve request handler",
			fmt.Errorf("%w: could not find request handler with id %q for source %q", ErrUnknownSelector, sel.RequestHandlerID, src.ID))
	}
	d.RequestHandler = h
	return d, nil
}

// loadPlugins loads every path concurrently. The first failure cancels the
// rest and is returned; on success plugins keep the order of paths.
func loadPlugins(ctx context.Context, paths []string, load PluginLoader) ([]mediafinder.Plugin, error) {
	plugins := make([]mediafinder.Plugin, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			p, err := load(gctx, path)
			if err != nil {
				return WrapContractError(StagePlugins, ErrCodePluginLoad, "load plugin "+path, err)
			}
			plugins[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plugins, nil
}
