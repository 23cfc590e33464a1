package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/proxy"
	"github.com/callumgare/media-finder-cli/internal/viewer"
	"github.com/callumgare/media-finder-cli/mediafinder"
)

// openBrowser is replaced in tests.
var openBrowser = viewer.Open

func (c *cli) render(ctx context.Context, container *app.Container, format, sourceID, handlerID string, resp *mediafinder.Response) error {
	switch format {
	case formatPretty:
		return renderPretty(c.stdout, resp)
	case formatOnline:
		return c.renderOnline(ctx, resp)
	case formatArchive:
		link, err := container.ArchiveResponse(ctx, sourceID, handlerID, resp)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.stdout, link)
		return err
	default:
		return writeJSON(c.stdout, resp)
	}
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// renderOnline publishes resp to the viewer with file URLs routed through
// a local CORS proxy, then serves the proxy until ctx is cancelled.
func (c *cli) renderOnline(ctx context.Context, resp *mediafinder.Response) error {
	p, err := proxy.Start()
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Close(shutdownCtx)
	}()

	p.RewriteFiles(resp)
	url, err := viewer.NewClient(c.cfg.ViewerURL).Publish(ctx, resp)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "View results at: %s\n", url)
	if err := openBrowser(url); err != nil {
		slog.Warn("could not open browser", "error", err)
	}
	fmt.Fprintln(c.stderr, "Serving media through the local proxy, press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}
