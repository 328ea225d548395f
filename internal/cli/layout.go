package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
)

// layoutCommand creates the layout command: dataset → snapshot JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		of      optionFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [dataset.json]",
		Short: "Run the simulation for one move and write the positioned snapshot",
		Long: `Run the force simulation for one move scope and write the result as a
snapshot JSON file: every visible square with its position, radius and
colors, every surviving link with its endpoints, and the fit transform.

The snapshot can be rendered later with 'visualize' without running the
simulation again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, &of)
			if err != nil {
				return err
			}
			opts.Refresh = refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache)
		},
	}

	addOptionFlags(cmd, &of)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.move<n>.snapshot.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute a cached layout")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	src, err := runner.Load(ctx, input)
	if err != nil {
		return err
	}
	if err := errors.ValidateMoveIndex(opts.Move, src.Dataset.Len()); err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Simulating %s layout...", opts.Layout))
	spinner.Start()
	snap, cacheHit, err := runner.Snapshot(ctx, src, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = fmt.Sprintf("%s.move%d.snapshot.json", base, opts.Move)
	}
	if err := graph.WriteSnapshotFile(snap, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(sceneStats{nodes: len(snap.Nodes), links: len(snap.Links), ticks: snap.Ticks, cached: cacheHit})
	printNewline()
	printNextStep("Render", appName+" visualize "+output)
	return nil
}
