package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitchenops/allergycheck/internal/backup"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full store as a JSON document",
		Long: `Export every ingredient, supplier item, component, dish, station and
saved matrix as one JSON document. Composition is referenced by name, so
the file can be imported into a fresh database.

Example:
  allergycheck export -o menu-backup.json`,
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

			doc, err := backup.Export(cmd.Context(), svc)
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "export failed", err)
			}
			data, err := backup.Marshal(doc)
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "export failed", err)
			}

			if outPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				_ = f.Error("INTERNAL", err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to write export file", err)
			}
			f.VerboseLog("wrote %d bytes to %s", len(data), outPath)
			return f.Success(fmt.Sprintf("exported to %s", outPath))
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a JSON export document",
		Long: `Validate and import a previously exported document. The file is checked
against the document schema before anything is written. Import into an
empty database for a clean restore; name collisions abort partway.

Example:
  allergycheck import menu-backup.json --db fresh.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)

			data, err := os.ReadFile(args[0])
			if err != nil {
				_ = f.Error("INTERNAL", err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read import file", err)
			}

			st, svc, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := backup.Import(cmd.Context(), svc, data)
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), stats)
				return WrapExitError(ExitCommandError, "import failed", err)
			}
			if rootOpts.Format == "json" {
				return f.Success(stats)
			}
			return f.Success(fmt.Sprintf(
				"imported %d ingredients, %d supplier items, %d components, %d dishes, %d stations, %d matrices",
				stats.Ingredients, stats.SupplierItems, stats.Components,
				stats.Dishes, stats.Stations, stats.Matrices))
		},
	}

	return cmd
}

// NewRecomputeCommand creates the recompute command.
func NewRecomputeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Refresh derived allergen sets for all components and dishes",
		Long: `Recompute the persisted allergen set of every component and dish from
the current constituent graph. Normally saves keep these in sync; run
this after hand-editing the database or importing legacy data.`,
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

			if err := svc.RecomputeAllergens(cmd.Context()); err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "recompute failed", err)
			}
			return f.Success("recomputed derived allergens")
		},
	}
}
