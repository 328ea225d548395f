package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/pipeline"
	"github.com/abid8042/chessnetviz/pkg/watcher"
)

// viewCommand creates the view command: a live terminal viewer that runs
// the simulation tick by tick.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		of    optionFlags
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "view [dataset.json]",
		Short: "Watch a move's layout settle in the terminal",
		Long: `Open an interactive terminal view of one move.

Scrub through moves, switch scope, layout, coloring and palette, and step
through squares to read their metrics. With --watch the dataset is
reloaded whenever the file changes on disk.`,
		Example: `  chessnetviz view game.json -m 20 -l radial
  chessnetviz view game.json --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.options(cmd, &of)
			if err != nil {
				return err
			}
			// The viewer draws into the alternate screen; keep logs quiet.
			opts.Logger = nil
			return c.runView(cmd.Context(), args[0], opts, watch)
		},
	}

	addOptionFlags(cmd, &of)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload the dataset when the file changes")
	return cmd
}

func (c *CLI) runView(ctx context.Context, path string, opts pipeline.Options, watch bool) error {
	src, err := pipeline.Load(ctx, path)
	if err != nil {
		return err
	}
	if err := errors.ValidateMoveIndex(opts.Move, src.Dataset.Len()); err != nil {
		return err
	}

	m, err := newViewModel(src, opts)
	if err != nil {
		return err
	}

	if watch {
		w, err := watcher.New(path)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		defer w.Stop()
		m.watch = reloadOnChange(ctx, w)
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// reloadOnChange returns a command factory that blocks until the watched
// file changes and then loads it again.
func reloadOnChange(ctx context.Context, w *watcher.Watcher) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			select {
			case <-ctx.Done():
				return nil
			case <-w.Changed():
			}
			src, err := pipeline.Load(ctx, w.Path())
			if err != nil {
				return reloadErrMsg{err: err}
			}
			return reloadMsg{src: src}
		}
	}
}
