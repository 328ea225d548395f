package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/render"
)

// renderFlags are the output flags of the render command.
type renderFlags struct {
	output      string
	formats     string
	allMoves    bool
	concurrency int
	noCache     bool
	refresh     bool
}

// renderCommand creates the render command: dataset → images.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		of optionFlags
		rf renderFlags
	)

	cmd := &cobra.Command{
		Use:   "render [dataset.json]",
		Short: "Render one move (or every move) of a dataset",
		Long: `Render one move of a dataset to SVG, PNG, JSON, DOT or Graphviz SVG.

The simulation runs headless until it comes to rest, the scene is styled and
the viewport is fitted, then each requested format is written. Files are
named chess_network_move_{n}_{scope}_{layout}_color_{coloring}_palette_{palette}.{ext}
inside the output directory, unless a single file path is given.

Results are cached; --refresh recomputes them, --no-cache disables the cache.`,
		Example: `  chessnetviz render game.json -m 12 -l spiral -f svg,png
  chessnetviz render game.json --all-moves -l radial -o frames/
  chessnetviz render game.json -c betweenness_centrality --palette viridis`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, &of)
			if err != nil {
				return err
			}
			if opts.Formats, err = parseFormats(rf.formats); err != nil {
				return err
			}
			opts.Refresh = rf.refresh
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, rf)
		},
	}

	addOptionFlags(cmd, &of)
	cmd.Flags().StringVarP(&rf.output, "output", "o", "", "output directory, or file path for a single format")
	cmd.Flags().StringVarP(&rf.formats, "format", "f", "", "output format(s): svg (default), png, json, dot, graphviz")
	cmd.Flags().BoolVar(&rf.allMoves, "all-moves", false, "render every move of the dataset")
	cmd.Flags().IntVar(&rf.concurrency, "concurrency", 0, "moves rendered in parallel with --all-moves (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&rf.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&rf.refresh, "refresh", false, "recompute cached results")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, rf renderFlags) error {
	runner, err := c.newRunner(ctx, rf.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	src, err := runner.Load(ctx, input)
	if err != nil {
		return err
	}

	if rf.allMoves {
		return c.renderAllMoves(ctx, runner, src, opts, rf)
	}
	if err := errors.ValidateMoveIndex(opts.Move, src.Dataset.Len()); err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Laying out move %d...", opts.Move))
	spinner.Start()
	res, err := runner.Execute(ctx, src, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(res.Snapshot, res.Artifacts, opts.Formats, rf.output)
	if err != nil {
		return err
	}

	printSuccess("Rendered move %d (%s)", res.Snapshot.Move, moveLabel(res.Snapshot))
	for _, p := range paths {
		printFile(p)
	}
	printStats(sceneStats{
		nodes:  res.Stats.VisibleNodes,
		links:  res.Stats.VisibleLinks,
		ticks:  res.Stats.Ticks,
		cached: res.CacheInfo.SnapshotHit && res.CacheInfo.RenderHit,
	})
	return nil
}

// renderAllMoves renders every move into the output directory.
func (c *CLI) renderAllMoves(ctx context.Context, runner *pipeline.Runner, src *pipeline.Source, opts pipeline.Options, rf renderFlags) error {
	dir := rf.output
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	total := src.Dataset.Len()
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, fmt.Sprintf("Rendering %d moves...", total))
	spinner.Start()

	var (
		done  atomic.Int32
		hits  atomic.Int32
		mu    sync.Mutex
		files []string
	)
	err := runner.ExecuteAll(ctx, src, opts, rf.concurrency, func(res *pipeline.Result) error {
		paths, err := writeArtifacts(res.Snapshot, res.Artifacts, opts.Formats, dir+string(filepath.Separator))
		if err != nil {
			return err
		}
		if res.CacheInfo.SnapshotHit {
			hits.Add(1)
		}
		n := done.Add(1)
		spinner.Update(fmt.Sprintf("Rendering moves... %d/%d", n, total))
		mu.Lock()
		files = append(files, paths...)
		mu.Unlock()
		return nil
	})
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	prog.done("rendered all moves", "moves", total, "files", len(files))
	printSuccess("Rendered %d moves into %s", total, dir)
	printDetail("%d files, %d layouts from cache", len(files), hits.Load())
	return nil
}

// writeArtifacts writes each artifact and returns the paths written. An
// output ending in a separator or naming a directory receives generated
// file names; any other output is used verbatim when there is one format.
func writeArtifacts(snap graph.Snapshot, artifacts map[string][]byte, formats []string, output string) ([]string, error) {
	dir, single := outputTarget(output, len(formats))
	if single == "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	var paths []string
	for _, name := range formats {
		data, ok := artifacts[name]
		if !ok {
			continue
		}
		path := single
		if path == "" {
			path = filepath.Join(dir, snap.FileName(render.Format(name).Ext()))
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputTarget splits an --output value into a directory for generated
// names, or a single file path.
func outputTarget(output string, formats int) (dir, file string) {
	switch {
	case output == "":
		return ".", ""
	case strings.HasSuffix(output, string(filepath.Separator)) || strings.HasSuffix(output, "/"):
		return output, ""
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return output, ""
	}
	if formats == 1 {
		return "", output
	}
	return output, ""
}

func moveLabel(s graph.Snapshot) string {
	if s.MoveSAN == "" {
		return "start"
	}
	return s.MoveSAN
}
