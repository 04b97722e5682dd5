package cli

import (
	"github.com/spf13/cobra"

	"github.com/fjod/fitstore/internal/cache"
	"github.com/fjod/fitstore/internal/catalog"
	"github.com/fjod/fitstore/internal/client"
	"github.com/fjod/fitstore/internal/domain"
)

type CatalogOptions struct {
	*RootOptions
	Search     string
	Categories []string
	Sizes      []string
	Brand      string
	MinPrice   int
	MaxPrice   int
}

func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the rewards catalog",
		Long: `Fetch the rewards catalog from the Fitcoin service and print the items that
match the given filters. Without flags every active item is listed.

Example:
  fitstore catalog --search gorra
  fitstore catalog --category Ropa --category Calzado --max 50 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			api := client.New(opts.cfg.APIBaseURL, opts.cfg.RequestTimeout, client.WithLogger(opts.logger))
			source := catalog.NewSource(api, cache.Nop{}, opts.cfg.CatalogLimit, opts.logger)

			items, err := source.List(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load catalog", err)
			}
			items = catalog.Filter(items, opts.filters())

			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return writeCatalog(cmd.OutOrStdout(), items)
		},
	}

	def := domain.DefaultFilters()
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "case-insensitive text search on name and description")
	cmd.Flags().StringSliceVar(&opts.Categories, "category", nil, "category to include (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Sizes, "size", nil, "size to include (repeatable)")
	cmd.Flags().StringVar(&opts.Brand, "brand", "", "exact brand")
	cmd.Flags().IntVar(&opts.MinPrice, "min", def.MinPrice, "minimum price in fitcoins")
	cmd.Flags().IntVar(&opts.MaxPrice, "max", def.MaxPrice, "maximum price in fitcoins")
	return cmd
}

func (o *CatalogOptions) filters() domain.Filters {
	f := domain.DefaultFilters()
	f.Search = o.Search
	f.Brand = o.Brand
	f.MinPrice = o.MinPrice
	f.MaxPrice = o.MaxPrice
	if len(o.Categories) > 0 {
		f.Categories = o.Categories
	}
	if len(o.Sizes) > 0 {
		f.Sizes = o.Sizes
	}
	return f
}
