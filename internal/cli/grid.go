package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/ecaspace/config"
	"github.com/jonwraymond/ecaspace/raster"
	"github.com/jonwraymond/ecaspace/session"
	"github.com/jonwraymond/ecaspace/spacetime"
)

// GridResult is the JSON payload of the grid command.
type GridResult struct {
	X      int64    `json:"x"`
	T      int64    `json:"t"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`
}

type gridOptions struct {
	x, t       int64
	level      int
	cols, rows int
	workers    int
}

// NewGridCommand creates the grid command.
func NewGridCommand(rootOpts *RootOptions) *cobra.Command {
	opts := gridOptions{}

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print a space-time region",
		Long: `Print a region assembled from cols x rows blocks of the given level.

A block of level L covers 2^L cells over 2^(L-1) time steps starting at
(x, t). Blocks are fetched concurrently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				g, err := fetchGrid(ctx, a, opts)
				if err != nil {
					return err
				}
				rows := make([][]bool, g.Height)
				res := GridResult{X: opts.x, T: opts.t, Width: g.Width, Height: g.Height, Rows: make([]string, g.Height)}
				for y := range rows {
					rows[y] = g.Row(y)
					res.Rows[y] = config.FormatPattern(rows[y])
				}
				return a.out.Success(res, renderRows(rows))
			})
		},
	}

	cmd.Flags().Int64Var(&opts.x, "x", -32, "left edge")
	cmd.Flags().Int64Var(&opts.t, "t", 0, "first time step (>= 0)")
	cmd.Flags().IntVarP(&opts.level, "level", "l", 6, "block level (1-12)")
	cmd.Flags().IntVar(&opts.cols, "cols", 1, "blocks across")
	cmd.Flags().IntVar(&opts.rows, "rows", 1, "blocks down")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "concurrent block fetches")
	return cmd
}

func (o gridOptions) validate() error {
	switch {
	case o.level < 1 || o.level > raster.MaxLevel:
		return NewExitError(ExitCommandError, fmt.Sprintf("level must be in [1, %d], got %d", raster.MaxLevel, o.level))
	case o.cols < 1 || o.rows < 1:
		return NewExitError(ExitCommandError, fmt.Sprintf("cols and rows must be positive, got %d and %d", o.cols, o.rows))
	case o.workers < 1:
		return NewExitError(ExitCommandError, fmt.Sprintf("workers must be positive, got %d", o.workers))
	case o.x < -spacetime.MaxPosition || o.x > spacetime.MaxPosition:
		return NewExitError(ExitCommandError, fmt.Sprintf("x must be in [-%d, %d], got %d", spacetime.MaxPosition, spacetime.MaxPosition, o.x))
	case o.t < 0 || o.t > spacetime.MaxTime:
		return NewExitError(ExitCommandError, fmt.Sprintf("t must be in [0, %d], got %d", spacetime.MaxTime, o.t))
	}
	return nil
}

// fetchGrid rasterizes the blocks of the region concurrently and pastes
// them into one grid.
func fetchGrid(ctx context.Context, a *app, o gridOptions) (*raster.Grid, error) {
	bw, bh := 1<<o.level, 1<<(o.level-1)
	out := &raster.Grid{Width: o.cols * bw, Height: o.rows * bh}
	out.Cells = make([]bool, out.Width*out.Height)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for j := range o.rows {
		for i := range o.cols {
			g.Go(func() error {
				bx := o.x + int64(i*bw)
				bt := o.t + int64(j*bh)
				tile, err := query(ctx, a, func(ctx context.Context, s *session.Session) (*raster.Grid, error) {
					return s.Raster(ctx, bx, bt, o.level)
				})
				if err != nil {
					return err
				}
				// Tiles are disjoint, so writers never overlap.
				for y := range bh {
					copy(out.Cells[(j*bh+y)*out.Width+i*bw:], tile.Row(y))
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.out.VerboseLog("assembled %d blocks of level %d", o.cols*o.rows, o.level)
	return out, nil
}
