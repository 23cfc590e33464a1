// Command media-finder queries media sources described by CUE plugins.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/callumgare/media-finder-cli/internal/config"
	"github.com/callumgare/media-finder-cli/internal/pkg/logger"
	"github.com/callumgare/media-finder-cli/internal/pkg/tracing"
	"github.com/callumgare/media-finder-cli/internal/resolver"
)

const programName = "media-finder"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli carries what every subcommand needs.
type cli struct {
	cfg     *config.Config
	details *resolver.Details
	stdout  io.Writer
	stderr  io.Writer
	tty     bool
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", programName, err)
		return 1
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile, Output: stderr})

	shutdown, err := tracing.Init(ctx, cfg.OTLPEndpoint)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdown(context.Background()) }()

	details, err := resolver.NewContext(args, resolver.Options{}).ResolveSelectors(ctx)
	if err != nil {
		fmt.Fprintln(stderr, describeFailure(err))
		return 1
	}

	c := &cli{cfg: cfg, details: details, stdout: stdout, stderr: stderr, tty: isTerminal(stdout)}
	root, err := c.rootCommand()
	if err != nil {
		fmt.Fprintln(stderr, describeFailure(err))
		return 1
	}
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, describeFailure(err))
		return 1
	}
	return 0
}

func (c *cli) rootCommand() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Find media through pluggable sources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	builders := []func() (*cobra.Command, error){
		c.runCommand,
		c.showSchemaCommand,
		c.webUICommand,
		c.mcpCommand,
	}
	for _, build := range builders {
		cmd, err := build()
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}
	return root, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// describeFailure renders a command failure as one line.
func describeFailure(err error) string {
	var ce *resolver.ContractError
	if errors.As(err, &ce) {
		return formatStageFailure(programName, ce.Stage, ce.Code, ce.Op, ce.Err)
	}
	return fmt.Sprintf("%s: %v", programName, err)
}
