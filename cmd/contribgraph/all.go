package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/delivery"
	"github.com/benoitkugler/contribgraph/svgexport"
	"github.com/benoitkugler/contribgraph/themes"
)

var allFormatFlag string

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Export the graphs of every year and theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := svgexport.ParseFormat(allFormatFlag)
		if err != nil {
			return err
		}
		a, err := newApp(true, false)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		years, err := a.graphs.Years(ctx)
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Println("No years found.")
			return nil
		}
		names := themes.Names()
		sink := delivery.Dir(a.cfg.OutputDir)

		bar := progressbar.NewOptions(len(years)*len(names),
			progressbar.OptionSetDescription("Exporting graphs"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetWriter(os.Stderr),
		)

		var failed []string
		for _, year := range years {
			for _, theme := range names {
				if err := ctx.Err(); err != nil {
					return err
				}
				// a failed graph does not stop the others
				if _, err := a.exportSelected(ctx, year, theme, format, sink); err != nil {
					failed = append(failed, fmt.Sprintf("%d %s: %v", year, theme, err))
				}
				bar.Add(1)
			}
		}
		bar.Finish()

		fmt.Printf("Exported %d graphs to %s\n", len(years)*len(names)-len(failed), a.cfg.OutputDir)
		for _, f := range failed {
			fmt.Fprintf(os.Stderr, "Failed: %s\n", f)
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d exports failed", len(failed))
		}
		return nil
	},
}

func init() {
	allCmd.Flags().StringVarP(&allFormatFlag, "format", "f", "png", "export format: svg, png, json or pdf")
	rootCmd.AddCommand(allCmd)
}
