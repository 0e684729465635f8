// Package cli exposes the catalog engine as a "catalog" command tree. The
// commands talk to a price store through catalog.Store, normally the HTTP
// client.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pricecatalog/catalog"
	"pricecatalog/config"
	"pricecatalog/storeclient"
)

// Options wires the command tree.
type Options struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Observer catalog.Observer
	// NewStore opens the store the commands use. Defaults to the HTTP client
	// for Config.Store.
	NewStore func(cfg *config.Config, log zerolog.Logger) (catalog.Store, error)
}

// NewCommand returns the "catalog" command with its subcommands.
func NewCommand(opts Options) *cobra.Command {
	if opts.NewStore == nil {
		opts.NewStore = HTTPStore
	}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query and maintain the price catalog",
		Long:  "Search, summarise, export and edit price records held by a price store.",
	}

	r := &runner{opts: opts}
	cmd.AddCommand(
		r.searchCmd(),
		r.statsCmd(),
		r.exportCmd(),
		r.addCmd(),
		r.editCmd(),
		r.deleteCmd(),
	)
	return cmd
}

// HTTPStore opens the store client for cfg.
func HTTPStore(cfg *config.Config, log zerolog.Logger) (catalog.Store, error) {
	return storeclient.New(cfg.Store.URL,
		storeclient.WithTimeout(cfg.Store.Timeout),
		storeclient.WithSearchRetries(cfg.Store.Retries, cfg.Store.Timeout/10),
		storeclient.WithLogger(log),
	)
}

type runner struct {
	opts Options
}

func (r *runner) config() (*config.Config, error) {
	if r.opts.Config != nil {
		return r.opts.Config, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	r.opts.Config = cfg
	return cfg, nil
}

func (r *runner) session() (*catalog.Session, error) {
	cfg, err := r.config()
	if err != nil {
		return nil, err
	}
	store, err := r.opts.NewStore(cfg, r.opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening price store: %w", err)
	}
	return catalog.NewSession(store, catalog.Options{
		CallTimeout:     cfg.Engine.CallTimeout,
		BulkConcurrency: cfg.Engine.BulkConcurrency,
		PageSize:        cfg.Engine.PageSize,
		Logger:          r.opts.Logger,
		Observer:        r.opts.Observer,
	}), nil
}

// loaded opens a session and runs the filter from the command flags.
func (r *runner) loaded(ctx context.Context, f *filterFlags) (*catalog.Session, error) {
	s, err := r.session()
	if err != nil {
		return nil, err
	}
	if err := s.Search(ctx, f.filter()); err != nil {
		return nil, err
	}
	return s, nil
}

type filterFlags struct {
	query    string
	category string
	source   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "match item name or item code")
	cmd.Flags().StringVar(&f.category, "category", "", "exact category, or \"all\"")
	cmd.Flags().StringVar(&f.source, "source", "", "exact source, or \"all\"")
}

func (f *filterFlags) filter() catalog.Filter {
	return catalog.Filter{Text: f.query, Category: f.category, Source: f.source}
}

func writeTable(w io.Writer, items []catalog.PriceRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tCATEGORY\tSOURCE\tPRICE\tUNIT\tVERIFIED")
	for _, rec := range items {
		verified := "-"
		if t, ok := rec.VerifiedAt(); ok {
			verified = catalog.FormatDate(t)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.ItemName,
			orDash(rec.Category),
			orDash(rec.Source),
			catalog.FormatINR(rec.Price()),
			orDash(rec.Unit),
			verified,
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
