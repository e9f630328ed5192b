package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/session"
)

// CellResult is the JSON payload of the cell command.
type CellResult struct {
	X     int64 `json:"x"`
	T     int64 `json:"t"`
	State bool  `json:"state"`
}

// NewCellCommand creates the cell command.
func NewCellCommand(rootOpts *RootOptions) *cobra.Command {
	var x, t int64

	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Print the state of one cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				state, err := query(ctx, a, func(ctx context.Context, s *session.Session) (bool, error) {
					return s.Cell(ctx, x, t)
				})
				if err != nil {
					return err
				}
				text := "0"
				if state {
					text = "1"
				}
				return a.out.Success(CellResult{X: x, T: t, State: state}, text)
			})
		},
	}

	cmd.Flags().Int64Var(&x, "x", 0, "cell position")
	cmd.Flags().Int64Var(&t, "t", 0, "time step (>= 0)")
	return cmd
}
