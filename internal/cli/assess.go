package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitchenops/allergycheck/internal/assess"
	"github.com/kitchenops/allergycheck/internal/catalog"
	"github.com/kitchenops/allergycheck/internal/menu"
)

// AssessOptions holds flags for the assess command.
type AssessOptions struct {
	*RootOptions
	Allergens    []string
	Severity     string
	CrossContact bool
}

// NewAssessCommand creates the assess command.
func NewAssessCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssessOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assess <dish>",
		Short: "Assess a dish against declared allergies",
		Long: `Assess whether a dish is safe for a guest with the given allergies.

The dish is matched by exact name (case-insensitive) or by ID. The verdict
is one of ok, warning, modify or not_ok; a not_ok verdict exits with
code 1 so scripts can branch on it.

Example:
  allergycheck assess "Pad Thai" --allergens peanuts,shellfish --severity anaphylactic
  allergycheck assess "Caesar Salad" --allergens dairy --severity moderate --cross-contact`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Allergens, "allergens", nil, "declared allergens, comma-separated (required)")
	cmd.Flags().StringVar(&opts.Severity, "severity", string(assess.SeverityModerate), "severity tier (anaphylactic|moderate|preference)")
	cmd.Flags().BoolVar(&opts.CrossContact, "cross-contact", false, "guest is concerned about shared-equipment cross-contact")
	_ = cmd.MarkFlagRequired("allergens")

	return cmd
}

func runAssess(opts *AssessOptions, dishRef string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	selected := make([]catalog.Allergen, 0, len(opts.Allergens))
	for _, raw := range opts.Allergens {
		a := catalog.Allergen(strings.ToLower(strings.TrimSpace(raw)))
		if !catalog.IsKnown(a) {
			_ = f.Error("VALIDATION", fmt.Sprintf("unknown allergen %q", raw), catalog.IDs())
			return WrapExitError(ExitCommandError, "unknown allergen", nil)
		}
		selected = append(selected, a)
	}

	st, svc, err := openService(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	snap, err := svc.Snapshot(ctx)
	if err != nil {
		_ = f.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load store", err)
	}
	dish, err := findDish(snap.Dishes, dishRef)
	if err != nil {
		_ = f.Error("NOT_FOUND", err.Error(), nil)
		return WrapExitError(ExitCommandError, "dish not found", err)
	}

	result, err := svc.AssessDish(ctx, dish.ID, selected, assess.Severity(opts.Severity), opts.CrossContact)
	if err != nil {
		_ = f.Error(ErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "assessment failed", err)
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), renderAssessment(dish, result))
	}

	if result.Verdict == assess.VerdictNotOK {
		return &ExitError{Code: ExitNotOK, Message: "dish cannot be served safely"}
	}
	return nil
}

// findDish matches by ID first, then exact name (case-insensitive).
func findDish(dishes map[string]menu.Dish, ref string) (menu.Dish, error) {
	if d, ok := dishes[ref]; ok {
		return d, nil
	}
	for _, d := range dishes {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	return menu.Dish{}, fmt.Errorf("no dish named %q", ref)
}

func renderAssessment(dish menu.Dish, a assess.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (%s severity)\n", dish.Name, verdictLabel(a.Verdict), a.Severity)

	if len(a.Triggers) > 0 {
		fmt.Fprintln(&b, "Triggers:")
		for _, ev := range a.Triggers {
			fmt.Fprintf(&b, "  - %s%s\n", ev.Item.Name, hitSummary(ev))
		}
	}
	if len(a.Warnings) > 0 {
		fmt.Fprintln(&b, "Warnings:")
		for _, ev := range a.Warnings {
			fmt.Fprintf(&b, "  - %s%s\n", ev.Item.Name, hitSummary(ev))
		}
	}
	if len(a.Removals) > 0 {
		fmt.Fprintln(&b, "Serve without:")
		for _, item := range a.Removals {
			fmt.Fprintf(&b, "  - %s\n", item.Name)
		}
	}
	return b.String()
}

func verdictLabel(v assess.Verdict) string {
	switch v {
	case assess.VerdictOK:
		return "OK to serve"
	case assess.VerdictWarning:
		return "OK with warning"
	case assess.VerdictModify:
		return "Serve modified"
	case assess.VerdictNotOK:
		return "DO NOT SERVE"
	default:
		return string(v)
	}
}

func hitSummary(ev assess.Evidence) string {
	if len(ev.Hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ev.Hits))
	for _, h := range ev.Hits {
		if h.Allergen == "" {
			parts = append(parts, string(h.Channel))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", h.Allergen, h.Channel))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
