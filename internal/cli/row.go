package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/config"
	"github.com/jonwraymond/ecaspace/naive"
	"github.com/jonwraymond/ecaspace/session"
)

// RowResult is the JSON payload of the row command.
type RowResult struct {
	X        int64  `json:"x"`
	T        int64  `json:"t"`
	Width    int    `json:"width"`
	Cells    string `json:"cells"`
	Verified bool   `json:"verified,omitempty"`
}

// NewRowCommand creates the row command.
func NewRowCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		x, t   int64
		width  int
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "row",
		Short: "Print a run of cells at one time step",
		Long: `Print cells [x, x+width) at time t.

With --verify the row is recomputed by direct simulation and compared;
this costs O(t * (t + width)) and is meant for modest t.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("width must be positive, got %d", width))
			}
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return runRow(ctx, a, x, t, width, verify)
			})
		},
	}

	cmd.Flags().Int64Var(&x, "x", -32, "leftmost cell")
	cmd.Flags().Int64Var(&t, "t", 0, "time step (>= 0)")
	cmd.Flags().IntVarP(&width, "width", "w", 64, "number of cells")
	cmd.Flags().BoolVar(&verify, "verify", false, "check the row against direct simulation")
	return cmd
}

func runRow(ctx context.Context, a *app, x, t int64, width int, verify bool) error {
	row, err := query(ctx, a, func(ctx context.Context, s *session.Session) ([]bool, error) {
		return s.Row(ctx, x, t, width)
	})
	if err != nil {
		return err
	}

	res := RowResult{X: x, T: t, Width: width, Cells: config.FormatPattern(row)}
	if verify {
		want := naive.Window(a.session.Rule(), a.session.Initial().CellAt, x, t, width)
		for i := range want {
			if row[i] != want[i] {
				return NewExitError(ExitFailure,
					fmt.Sprintf("verification failed: cell %d at t=%d is %v, simulation gives %v", x+int64(i), t, row[i], want[i]))
			}
		}
		res.Verified = true
		a.out.VerboseLog("verified %d cells against direct simulation", width)
	}
	return a.out.Success(res, renderCells(row))
}
