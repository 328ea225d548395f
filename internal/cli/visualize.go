package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/render"
)

// visualizeCommand creates the visualize command: snapshot JSON → images.
func (c *CLI) visualizeCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "visualize [snapshot.json]",
		Short: "Render a snapshot produced by 'layout'",
		Long: `Render a snapshot JSON file (produced by 'layout' or 'render -f json') to
SVG, PNG, DOT or Graphviz SVG. The snapshot already holds every position and
color, so no simulation runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := render.ParseFormats(formatsOrDefault(formatsStr))
			if err != nil {
				return err
			}
			return c.runVisualize(cmd.Context(), args[0], formats, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory, or file path for a single format")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, graphviz")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func formatsOrDefault(s string) string {
	if s == "" {
		return string(render.FormatSVG)
	}
	return s
}

func (c *CLI) runVisualize(ctx context.Context, input string, formats []render.Format, output string, noCache bool) error {
	snap, err := graph.ReadSnapshotFile(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %d nodes...", len(snap.Nodes)))
	spinner.Start()
	artifacts, cacheHit, err := runner.Render(ctx, snap, formats)
	if err != nil {
		spinner.StopWithError("Visualization failed")
		return fmt.Errorf("visualize: %w", err)
	}
	spinner.Stop()

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	paths, err := writeArtifacts(snap, artifacts, names, output)
	if err != nil {
		return err
	}

	printSuccess("Rendered snapshot")
	for _, p := range paths {
		printFile(p)
	}
	printStats(sceneStats{nodes: len(snap.Nodes), links: len(snap.Links), cached: cacheHit})
	return nil
}
