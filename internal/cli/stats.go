package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/session"
)

// StatsResult is the JSON payload of the stats command.
type StatsResult struct {
	T               int64  `json:"t"`
	Slices          int    `json:"slices"`
	MaxSlices       int    `json:"max_slices"`
	Nexts           int    `json:"nexts"`
	ResolverEntries int    `json:"resolver_entries"`
	RasterEntries   int    `json:"raster_entries"`
	RasterHits      uint64 `json:"raster_hits"`
	RasterMisses    uint64 `json:"raster_misses"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		x, t  int64
		width int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Resolve a row and report table sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("width must be positive, got %d", width))
			}
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				if _, err := query(ctx, a, func(ctx context.Context, s *session.Session) ([]bool, error) {
					return s.Row(ctx, x, t, width)
				}); err != nil {
					return err
				}
				res := statsResult(t, a.session.Stats())
				return a.out.Success(res, res.text())
			})
		},
	}

	cmd.Flags().Int64Var(&x, "x", -32, "leftmost cell of the warm-up row")
	cmd.Flags().Int64Var(&t, "t", 1024, "time step of the warm-up row")
	cmd.Flags().IntVarP(&width, "width", "w", 64, "width of the warm-up row")
	return cmd
}

func statsResult(t int64, st session.Stats) StatsResult {
	return StatsResult{
		T:               t,
		Slices:          st.Store.Slices,
		MaxSlices:       st.Store.MaxSlices,
		Nexts:           st.Store.Nexts,
		ResolverEntries: st.ResolverEntries,
		RasterEntries:   st.RasterEntries,
		RasterHits:      st.RasterCache.Hits,
		RasterMisses:    st.RasterCache.Misses,
	}
}

func (r StatsResult) text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "t:                %d\n", r.T)
	fmt.Fprintf(&b, "slices:           %d / %d\n", r.Slices, r.MaxSlices)
	fmt.Fprintf(&b, "nexts:            %d\n", r.Nexts)
	fmt.Fprintf(&b, "resolver entries: %d\n", r.ResolverEntries)
	fmt.Fprintf(&b, "raster entries:   %d", r.RasterEntries)
	return b.String()
}
