package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/service"
)

// NewListCommand creates the list command group.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities and the allergen catalog",
	}

	cmd.AddCommand(newListAllergensCommand(rootOpts))
	cmd.AddCommand(newListEntitiesCommand(rootOpts, "ingredients", "List ingredients"))
	cmd.AddCommand(newListEntitiesCommand(rootOpts, "suppliers", "List supplier items"))
	cmd.AddCommand(newListEntitiesCommand(rootOpts, "components", "List components"))
	cmd.AddCommand(newListEntitiesCommand(rootOpts, "stations", "List stations in display order"))
	cmd.AddCommand(newListDishesCommand(rootOpts))

	return cmd
}

func newListAllergensCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "allergens",
		Short:         "List the allergen catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			if rootOpts.Format == "json" {
				return f.Success(catalog.All())
			}
			for _, info := range catalog.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s\n", info.Emoji, info.ID, info.Name)
			}
			return nil
		},
	}
}

func newListEntitiesCommand(rootOpts *RootOptions, kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:           kind,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, _, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			switch kind {
			case "ingredients":
				items, err := st.ListIngredients(ctx)
				if err != nil {
					return listFailed(f, err)
				}
				if rootOpts.Format == "json" {
					return f.Success(items)
				}
				for _, it := range items {
					fmt.Fprintf(out, "%s  %s%s\n", it.ID, it.Name, allergenSuffix(it.Allergens, it.MayContain))
				}
			case "suppliers":
				items, err := st.ListSupplierItems(ctx)
				if err != nil {
					return listFailed(f, err)
				}
				if rootOpts.Format == "json" {
					return f.Success(items)
				}
				for _, it := range items {
					label := it.Name
					if it.Supplier != "" {
						label += " (" + it.Supplier + ")"
					}
					fmt.Fprintf(out, "%s  %s%s\n", it.ID, label, allergenSuffix(it.Allergens, it.MayContain))
				}
			case "components":
				items, err := st.ListComponents(ctx)
				if err != nil {
					return listFailed(f, err)
				}
				if rootOpts.Format == "json" {
					return f.Success(items)
				}
				for _, it := range items {
					fmt.Fprintf(out, "%s  %s%s\n", it.ID, it.Name, allergenSuffix(it.Allergens, nil))
				}
			case "stations":
				items, err := st.ListStations(ctx)
				if err != nil {
					return listFailed(f, err)
				}
				if rootOpts.Format == "json" {
					return f.Success(items)
				}
				for _, it := range items {
					fmt.Fprintf(out, "%s  %s\n", it.ID, it.Name)
				}
			}
			return nil
		},
	}
}

func newListDishesCommand(rootOpts *RootOptions) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:           "dishes",
		Short:         "List dishes, optionally filtered by name or station",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, svc, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			snap, err := svc.Snapshot(cmd.Context())
			if err != nil {
				return listFailed(f, err)
			}
			dishes := service.FindDishes(snap, query)
			if rootOpts.Format == "json" {
				return f.Success(dishes)
			}
			for _, d := range dishes {
				station := ""
				if d.Station != "" {
					station = " @ " + d.Station
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s%s%s\n", d.ID, d.Name, station, allergenSuffix(d.Allergens, nil))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive substring match on name or station")
	return cmd
}

func listFailed(f *OutputFormatter, err error) error {
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return WrapExitError(ExitCommandError, "failed to read store", err)
}

func allergenSuffix(contains, mayContain []catalog.Allergen) string {
	var parts []string
	for _, a := range contains {
		parts = append(parts, string(a))
	}
	for _, a := range mayContain {
		parts = append(parts, "~"+string(a))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}
