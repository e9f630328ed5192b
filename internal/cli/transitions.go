package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/ecaspace/session"
	"github.com/jonwraymond/ecaspace/transition"
)

// TransitionsResult is the JSON payload of the transitions command.
type TransitionsResult struct {
	Rule         int               `json:"rule"`
	Width        int               `json:"width"`
	Edges        map[string]string `json:"edges,omitempty"`
	GardenOfEden []string          `json:"garden_of_eden"`
	FixedPoints  []string          `json:"fixed_points"`
}

// NewTransitionsCommand creates the transitions command.
func NewTransitionsCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		width   int
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Map every periodic pattern of a width to its successor",
		Long: `Repeat every pattern of the given width forever in both directions,
step it once under the rule, and report which pattern it becomes.

Patterns nothing steps into are Gardens of Eden. The initial-row flags
are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 1 || width > transition.MaxWidth {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("width must be in [1, %d], got %d", transition.MaxWidth, width))
			}
			return run(cmd, rootOpts, func(ctx context.Context, a *app) error {
				g, err := query(ctx, a, func(ctx context.Context, s *session.Session) (*transition.Graph, error) {
					return s.Transitions(ctx, width)
				})
				if err != nil {
					return err
				}
				res := transitionsResult(a.cfg.Rule, g, !summary)
				a.out.VerboseLog("%d patterns, %d without predecessor", g.Len(), len(res.GardenOfEden))
				return a.out.Success(res, res.text(g))
			})
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 4, fmt.Sprintf("pattern width (1-%d)", transition.MaxWidth))
	cmd.Flags().BoolVar(&summary, "summary", false, "omit the edge list")
	return cmd
}

func transitionsResult(rule int, g *transition.Graph, edges bool) TransitionsResult {
	res := TransitionsResult{
		Rule:         rule,
		Width:        g.Width,
		GardenOfEden: formatAll(g.Width, g.GardenOfEden()),
		FixedPoints:  formatAll(g.Width, g.FixedPoints()),
	}
	if edges {
		res.Edges = make(map[string]string, g.Len())
		for p, next := range g.Next {
			res.Edges[transition.Format(g.Width, uint32(p))] = transition.Format(g.Width, next)
		}
	}
	return res
}

func formatAll(n int, ps []uint32) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = transition.Format(n, p)
	}
	return out
}

func (r TransitionsResult) text(g *transition.Graph) string {
	var b strings.Builder
	if r.Edges != nil {
		for p, next := range g.Next {
			fmt.Fprintf(&b, "%s -> %s\n", transition.Format(g.Width, uint32(p)), transition.Format(g.Width, next))
		}
	}
	fmt.Fprintf(&b, "garden of eden: %s\n", strings.Join(r.GardenOfEden, " "))
	fmt.Fprintf(&b, "fixed points:   %s", strings.Join(r.FixedPoints, " "))
	return b.String()
}
