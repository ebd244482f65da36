package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/foi-request-api/internal/app"
	"github.com/noah-isme/foi-request-api/internal/models"
	"github.com/noah-isme/foi-request-api/pkg/config"
	"github.com/noah-isme/foi-request-api/pkg/logger"
)

// cli carries state shared by every subcommand.
type cli struct {
	out        io.Writer
	loadConfig func() (*config.Config, error)
	newLogger  func(*config.Config) (*zap.Logger, error)

	sample  bool
	verbose bool
}

func newCLI(out io.Writer) *cli {
	return &cli{out: out, loadConfig: config.Load, newLogger: logger.New}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "foictl",
		Short: "Manage freedom of information requests",
		Long: `foictl works against the same store as the API server.

With STORE_DRIVER=memory every invocation starts empty; pass --sample
to load the demonstration records first.`,
		SilenceUsage: true,
	}
	root.SetOut(c.out)
	root.PersistentFlags().BoolVar(&c.sample, "sample", false, "Load sample requests before running the command")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		newMigrateCmd(c),
		newSeedCmd(c),
		newListCmd(c),
		newReportCmd(c),
		newExportCmd(c),
	)
	return root
}

// open assembles the application for one command invocation.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr := zap.NewNop()
	if c.verbose {
		if logr, err = c.newLogger(cfg); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}
	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return nil, err
	}
	if c.sample || cfg.Store.SeedSample {
		if _, err := a.SeedSample(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

type filterFlags struct {
	statuses     []string
	legislations []string
	search       string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Only requests in these statuses (repeatable or comma separated)")
	cmd.Flags().StringSliceVar(&f.legislations, "legislation", nil, "Only requests under these statutes")
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive match on requester name or id")
}

func (f *filterFlags) filter() (models.FOIRequestFilter, error) {
	filter := models.FOIRequestFilter{Search: f.search}
	for _, raw := range f.statuses {
		status := models.RequestStatus(strings.TrimSpace(raw))
		if !status.Valid() {
			return filter, fmt.Errorf("unknown status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range f.legislations {
		legislation := models.Legislation(strings.ToUpper(strings.TrimSpace(raw)))
		if !legislation.Valid() {
			return filter, fmt.Errorf("unknown legislation %q", raw)
		}
		filter.Legislations = append(filter.Legislations, legislation)
	}
	return filter, nil
}
