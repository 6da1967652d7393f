package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitchenops/allergycheck/internal/menu"
	"github.com/kitchenops/allergycheck/internal/store"
)

// NewStationCommand creates the station command group.
func NewStationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Manage kitchen stations",
	}

	cmd.AddCommand(newStationAddCommand(rootOpts))
	cmd.AddCommand(newStationRenameCommand(rootOpts))
	cmd.AddCommand(newStationDeleteCommand(rootOpts))
	cmd.AddCommand(newStationReorderCommand(rootOpts))

	return cmd
}

func newStationAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "add <name>",
		Short:         "Add a station at the end of the display order",
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

			created, err := st.CreateStation(cmd.Context(), menu.Station{Name: args[0]})
			if err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to create station", err)
			}
			if rootOpts.Format == "json" {
				return f.Success(created)
			}
			return f.Success(fmt.Sprintf("created station %q (%s)", created.Name, created.ID))
		},
	}
}

func newStationRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "rename <station> <new-name>",
		Short:         "Rename a station",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, _, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			target, err := findStation(cmd, st, args[0])
			if err != nil {
				_ = f.Error("NOT_FOUND", err.Error(), nil)
				return WrapExitError(ExitCommandError, "station not found", err)
			}
			if err := st.RenameStation(cmd.Context(), target.ID, args[1]); err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to rename station", err)
			}
			return f.Success(fmt.Sprintf("renamed station %q to %q", target.Name, args[1]))
		},
	}
}

func newStationDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <station>",
		Short: "Delete a station",
		Long: `Delete a station. Dishes keep their station label; they simply stop
appearing under a defined station until relabelled.`,
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

			target, err := findStation(cmd, st, args[0])
			if err != nil {
				_ = f.Error("NOT_FOUND", err.Error(), nil)
				return WrapExitError(ExitCommandError, "station not found", err)
			}
			if err := st.DeleteStation(cmd.Context(), target.ID); err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to delete station", err)
			}
			return f.Success(fmt.Sprintf("deleted station %q", target.Name))
		},
	}
}

func newStationReorderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <station>...",
		Short: "Set the station display order",
		Long: `Set the display order to the given sequence. Every existing station
must be listed exactly once.

Example:
  allergycheck station reorder Grill Fry "Cold Prep" Pastry`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			st, _, err := openService(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			ids := make([]string, 0, len(args))
			for _, ref := range args {
				target, err := findStation(cmd, st, ref)
				if err != nil {
					_ = f.Error("NOT_FOUND", err.Error(), nil)
					return WrapExitError(ExitCommandError, "station not found", err)
				}
				ids = append(ids, target.ID)
			}
			if err := st.ReorderStations(cmd.Context(), ids); err != nil {
				_ = f.Error(ErrorCode(err), err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to reorder stations", err)
			}
			return f.Success("reordered stations")
		},
	}
}

// findStation matches by ID or exact name (case-insensitive).
func findStation(cmd *cobra.Command, st *store.Store, ref string) (menu.Station, error) {
	stations, err := st.ListStations(cmd.Context())
	if err != nil {
		return menu.Station{}, err
	}
	for _, s := range stations {
		if s.ID == ref || strings.EqualFold(s.Name, ref) {
			return s, nil
		}
	}
	return menu.Station{}, fmt.Errorf("no station named %q", ref)
}
