package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"pricecatalog/catalog"
)

// catalog search
func (r *runner) searchCmd() *cobra.Command {
	var (
		f        filterFlags
		page     int
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "List price records matching a filter, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.loaded(cmd.Context(), &f)
			if err != nil {
				return err
			}
			if pageSize > 0 {
				s.SetPageSize(pageSize)
			}
			s.SetPage(page - 1)

			view := s.View()
			out := cmd.OutOrStdout()
			if err := writeTable(out, view.Items); err != nil {
				return err
			}
			pages := view.PageCount
			if pages == 0 {
				pages = 1
			}
			fmt.Fprintf(out, "page %d of %d, %d records\n", view.PageIndex+1, pages, view.Total)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}

// catalog stats
func (r *runner) statsCmd() *cobra.Command {
	var f filterFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the filtered result set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.loaded(cmd.Context(), &f)
			if err != nil {
				return err
			}
			st := s.Stats()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Total items:   %d\n", st.Total)
			fmt.Fprintf(out, "Categories:    %d\n", st.Categories)
			fmt.Fprintf(out, "Average price: %s\n", catalog.FormatINRShort(st.AvgPrice))
			if st.MinPrice != nil && st.MaxPrice != nil {
				fmt.Fprintf(out, "Price range:   %s - %s\n",
					catalog.FormatINRShort(*st.MinPrice), catalog.FormatINRShort(*st.MaxPrice))
			}
			if st.LastUpdated != nil {
				fmt.Fprintf(out, "Last updated:  %s\n", catalog.FormatDate(*st.LastUpdated))
			}
			for _, src := range sortedSources(st.BySource) {
				totals := st.BySource[src]
				fmt.Fprintf(out, "  %-10s %4d items  %s\n", src, totals.Count, catalog.FormatINRShort(totals.TotalPrice))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

// sortedSources lists the known sources first, in display order, then any
// others alphabetically.
func sortedSources(by map[string]catalog.SourceTotals) []string {
	out := make([]string, 0, len(by))
	seen := make(map[string]bool, len(by))
	for _, src := range catalog.Sources {
		if _, ok := by[src]; ok {
			out = append(out, src)
			seen[src] = true
		}
	}
	var rest []string
	for src := range by {
		if !seen[src] {
			rest = append(rest, src)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// catalog export
func (r *runner) exportCmd() *cobra.Command {
	var (
		f   filterFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered result set as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.loaded(cmd.Context(), &f)
			if err != nil {
				return err
			}
			exp := s.ExportCSV(time.Now())
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(exp.Data)
				return err
			}
			path := out
			if path == "" {
				path = exp.Filename
			}
			if err := os.WriteFile(path, exp.Data, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(s.Results()), path)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, \"-\" for stdout (default price_data_<date>.csv)")
	return cmd
}

// catalog add
func (r *runner) addCmd() *cobra.Command {
	var d catalog.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a price record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.session()
			if err != nil {
				return err
			}
			if err := s.Add(cmd.Context(), d); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %q, catalog now holds %d records\n", strings.TrimSpace(d.ItemName), len(s.Results()))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&d.ItemName, "name", "", "item name (required)")
	fl.StringVar(&d.UnitPrice, "price", "", "unit price in rupees (required)")
	fl.StringVar(&d.Category, "category", "", "category")
	fl.StringVar(&d.Unit, "unit", "", "unit of measure, e.g. sqm")
	fl.StringVar(&d.Source, "source", "", "price source, e.g. CPWD_SOR")
	fl.StringVar(&d.ItemCode, "code", "", "item code in the source list")
	fl.StringSliceVar(&d.IRCReference, "irc", nil, "IRC reference, repeatable")
	fl.StringVar(&d.Description, "description", "", "description")
	fl.StringVar(&d.LastVerified, "verified", "", "date the price was last verified (YYYY-MM-DD)")
	return cmd
}

// catalog edit <id>
func (r *runner) editCmd() *cobra.Command {
	var name, category, price, unit, source, code, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the editable fields of a price record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p catalog.Patch
			fl := cmd.Flags()
			set := func(flag string, v string) *string {
				if !fl.Changed(flag) {
					return nil
				}
				return &v
			}
			p.ItemName = set("name", name)
			p.Category = set("category", category)
			p.Unit = set("unit", unit)
			p.Source = set("source", source)
			p.ItemCode = set("code", code)
			p.Description = set("description", description)
			if fl.Changed("price") {
				d, err := decimal.NewFromString(strings.TrimSpace(price))
				if err != nil {
					return fmt.Errorf("invalid --price %q: %w", price, err)
				}
				p.UnitPrice = &d
			}
			if p.Empty() {
				return errors.New("nothing to change: set at least one field flag")
			}

			s, err := r.session()
			if err != nil {
				return err
			}
			if err := s.Edit(cmd.Context(), args[0], p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&name, "name", "", "item name")
	fl.StringVar(&price, "price", "", "unit price in rupees")
	fl.StringVar(&category, "category", "", "category")
	fl.StringVar(&unit, "unit", "", "unit of measure")
	fl.StringVar(&source, "source", "", "price source")
	fl.StringVar(&code, "code", "", "item code")
	fl.StringVar(&description, "description", "", "description")
	return cmd
}

// catalog delete <id>...
func (r *runner) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more price records",
		Long:  "Delete price records. With several ids every delete is attempted and failures are listed.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted %s\n", args[0])
				return nil
			}

			result, err := s.BulkDelete(cmd.Context(), args)
			fmt.Fprintf(out, "deleted %d of %d\n", len(result.Succeeded), result.Requested)
			for _, f := range result.Failed {
				fmt.Fprintf(out, "  %s: %v\n", f.ID, f.Err)
			}
			if err != nil {
				return err
			}
			return result.Err()
		},
	}
	return cmd
}
