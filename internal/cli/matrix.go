package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitchenops/allergycheck/internal/aggregate"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/matrix"
	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/store"
)

// NewMatrixCommand creates the matrix command group.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Build, save and show allergy matrices",
	}

	cmd.AddCommand(newMatrixStationCommand(rootOpts))
	cmd.AddCommand(newMatrixFeatureCommand(rootOpts))
	cmd.AddCommand(newMatrixListCommand(rootOpts))
	cmd.AddCommand(newMatrixShowCommand(rootOpts))
	cmd.AddCommand(newMatrixDeleteCommand(rootOpts))

	return cmd
}

func newMatrixStationCommand(rootOpts *RootOptions) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "station <station>",
		Short: "Generate a station matrix from current dishes",
		Long: `Generate an allergy matrix for one station: every dish assigned to the
station, in alphabetical name order, with one column per catalog allergen.

Example:
  allergycheck matrix station Grill
  allergycheck matrix station Grill --save`,
		Args:          cobra.ExactArgs(1),
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
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load store", err)
			}

			m := matrix.BuildStation(snap, args[0])
			if save {
				m, err = st.SaveMatrix(cmd.Context(), m)
				if err != nil {
					_ = f.Error(ErrorCode(err), err.Error(), nil)
					return WrapExitError(ExitCommandError, "failed to save matrix", err)
				}
				f.VerboseLog("saved matrix %s", m.ID)
			}
			return printMatrix(f, cmd, snap, m)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "persist the generated matrix")
	return cmd
}

func newMatrixFeatureCommand(rootOpts *RootOptions) *cobra.Command {
	var dishes []string
	var save bool

	cmd := &cobra.Command{
		Use:   "feature <name>",
		Short: "Build a feature matrix from hand-picked dishes",
		Long: `Build a custom matrix from an explicit dish list. Dishes appear in the
order given and can span stations.

Example:
  allergycheck matrix feature "Valentine's Menu" --dish "Oysters" --dish "Chocolate Fondant" --save`,
		Args:          cobra.ExactArgs(1),
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
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load store", err)
			}

			m := matrix.NewFeature(args[0])
			for _, ref := range dishes {
				dish, err := findDish(snap.Dishes, ref)
				if err != nil {
					_ = f.Error("NOT_FOUND", err.Error(), nil)
					return WrapExitError(ExitCommandError, "dish not found", err)
				}
				if err := matrix.AddDish(&m, snap, dish.ID); err != nil {
					_ = f.Error("VALIDATION", err.Error(), nil)
					return WrapExitError(ExitCommandError, "failed to add dish", err)
				}
			}
			if save {
				m, err = st.SaveMatrix(cmd.Context(), m)
				if err != nil {
					_ = f.Error(ErrorCode(err), err.Error(), nil)
					return WrapExitError(ExitCommandError, "failed to save matrix", err)
				}
				f.VerboseLog("saved matrix %s", m.ID)
			}
			return printMatrix(f, cmd, snap, m)
		},
	}

	cmd.Flags().StringArrayVar(&dishes, "dish", nil, "dish name or ID, repeatable (required)")
	cmd.Flags().BoolVar(&save, "save", false, "persist the matrix")
	_ = cmd.MarkFlagRequired("dish")
	return cmd
}

func newMatrixListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved matrices",
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

			matrices, err := st.ListMatrices(cmd.Context())
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to list matrices", err)
			}
			if rootOpts.Format == "json" {
				return f.Success(matrices)
			}
			if len(matrices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved matrices.")
				return nil
			}
			for _, m := range matrices {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s %s (%d dishes)\n",
					m.ID, m.Type, m.Name, len(m.DishIDs))
			}
			return nil
		},
	}
}

func newMatrixShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <matrix>",
		Short:         "Render a saved matrix",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, svc, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			m, err := findMatrix(cmd, st, args[0])
			if err != nil {
				_ = f.Error("NOT_FOUND", err.Error(), nil)
				return WrapExitError(ExitCommandError, "matrix not found", err)
			}
			snap, err := svc.Snapshot(cmd.Context())
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load store", err)
			}
			return printMatrix(f, cmd, snap, m)
		},
	}
}

func newMatrixDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <matrix>",
		Short:         "Delete a saved matrix",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, _, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			m, err := findMatrix(cmd, st, args[0])
			if err != nil {
				_ = f.Error("NOT_FOUND", err.Error(), nil)
				return WrapExitError(ExitCommandError, "matrix not found", err)
			}
			if err := st.DeleteMatrix(cmd.Context(), m.ID); err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to delete matrix", err)
			}
			return f.Success(fmt.Sprintf("deleted matrix %q", m.Name))
		},
	}
}

// findMatrix matches a saved matrix by ID or exact name.
func findMatrix(cmd *cobra.Command, st *store.Store, ref string) (menu.Matrix, error) {
	matrices, err := st.ListMatrices(cmd.Context())
	if err != nil {
		return menu.Matrix{}, err
	}
	for _, m := range matrices {
		if m.ID == ref || strings.EqualFold(m.Name, ref) {
			return m, nil
		}
	}
	return menu.Matrix{}, fmt.Errorf("no saved matrix %q", ref)
}

// matrixPayload is the JSON shape for rendered matrices.
type matrixPayload struct {
	Matrix menu.Matrix  `json:"matrix"`
	Rows   []matrix.Row `json:"rows"`
}

func printMatrix(f *OutputFormatter, cmd *cobra.Command, snap *aggregate.Snapshot, m menu.Matrix) error {
	rows, err := matrix.Rows(snap, m)
	if err != nil {
		_ = f.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to render matrix", err)
	}
	if f.Format == "json" {
		return f.Success(matrixPayload{Matrix: m, Rows: rows})
	}
	fmt.Fprint(cmd.OutOrStdout(), renderMatrixTable(m, rows))
	return nil
}

// renderMatrixTable lays out a text table: X marks contains, ~ marks
// trace risk. Column headers use the catalog emoji to stay narrow.
func renderMatrixTable(m menu.Matrix, rows []matrix.Row) string {
	nameWidth := len("Dish")
	for _, r := range rows {
		if len(r.Name) > nameWidth {
			nameWidth = len(r.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.Name)
	fmt.Fprintf(&b, "%-*s", nameWidth, "Dish")
	for _, info := range catalog.All() {
		fmt.Fprintf(&b, "  %s", info.Emoji)
	}
	b.WriteString("\n")

	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s", nameWidth, r.Name)
		for _, cell := range r.Cells {
			mark := " "
			switch cell.Mark {
			case matrix.MarkContains:
				mark = "X"
			case matrix.MarkMayContain:
				mark = "~"
			}
			fmt.Fprintf(&b, "  %s ", mark)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nX = contains   ~ = may contain\n")
	for _, info := range catalog.All() {
		fmt.Fprintf(&b, "%s %s  ", info.Emoji, info.Name)
	}
	b.WriteString("\n")
	return b.String()
}
