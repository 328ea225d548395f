package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abid8042/chessnetviz/pkg/errors"
	"github.com/abid8042/chessnetviz/pkg/graph"
	"github.com/abid8042/chessnetviz/pkg/layout"
)

// paramsCommand creates the params command listing layout parameters.
func (c *CLI) paramsCommand() *cobra.Command {
	var layouts []string
	for _, t := range graph.LayoutTypes {
		layouts = append(layouts, string(t))
	}

	return &cobra.Command{
		Use:       "params [layout]",
		Short:     "List layout parameters with their ranges and current values",
		Long:      `List the tunable parameters of one layout, or of all three, with their ranges, built-in defaults and the values in effect after the config file.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: layouts,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := graph.LayoutTypes
			if len(args) == 1 {
				t, err := graph.ParseLayoutType(args[0])
				if err != nil {
					return errors.Wrap(errors.ErrCodeInvalidLayout, err, "layout")
				}
				types = []graph.LayoutType{t}
			}
			for i, t := range types {
				if i > 0 {
					printNewline()
				}
				printParams(t, c.Config.Layout.Params)
			}
			return nil
		},
	}
}

func printParams(t graph.LayoutType, current layout.Params) {
	defaults := layout.DefaultParams()
	def := defaults.Values(t)
	cur := current.Values(t)

	var rows [][]string
	for _, d := range layout.Definitions(t) {
		value := fmtParam(cur[d.Key])
		if cur[d.Key] != def[d.Key] {
			value = StyleHighlight.Render(value)
		}
		rows = append(rows, []string{
			d.Key,
			fmtParam(d.Min) + " … " + fmtParam(d.Max),
			fmtParam(d.Step),
			fmtParam(def[d.Key]),
			value,
			d.Label,
		})
	}
	printTable(string(t), []string{"Key", "Range", "Step", "Default", "Current", "Label"}, rows)
}

func fmtParam(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
