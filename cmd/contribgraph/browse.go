package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/delivery"
	"github.com/benoitkugler/contribgraph/svgexport"
	"github.com/benoitkugler/contribgraph/themes"
)

const quit = "quit"

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Pick graphs interactively and export them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true, false)
		if err != nil {
			return err
		}
		defer a.graphs.Close()
		ctx := cmd.Context()

		years, err := a.graphs.Years(ctx)
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Println("No years found.")
			return nil
		}
		yearItems := make([]string, len(years))
		for i, y := range years {
			yearItems[i] = strconv.Itoa(y)
		}
		all := themes.All()
		themeItems := make([]string, len(all))
		for i, t := range all {
			themeItems[i] = t.Label
		}
		formatItems := []string{"svg", "png", "json", "pdf", "copy svg", "copy png", "copy json", quit}

		for {
			yearIdx, _, err := (&promptui.Select{Label: "Year", Items: yearItems}).Run()
			if err != nil {
				return promptErr(err)
			}
			themeIdx, _, err := (&promptui.Select{Label: "Theme", Items: themeItems}).Run()
			if err != nil {
				return promptErr(err)
			}
			year, theme := years[yearIdx], all[themeIdx].Name

			fmt.Printf("Fetching %d %s...\n", year, theme)
			if _, err := a.graphs.Select(ctx, year, theme); err != nil {
				fmt.Printf("Failed: %s: %v\n", theme, err)
				continue
			}

			_, action, err := (&promptui.Select{Label: "Export as", Items: formatItems}).Run()
			if err != nil {
				return promptErr(err)
			}
			if action == quit {
				return nil
			}

			var sink delivery.Sink = delivery.Dir(a.cfg.OutputDir)
			name := action
			if strings.HasPrefix(action, "copy ") {
				sink, name = delivery.Clipboard{}, strings.TrimPrefix(action, "copy ")
			}
			format, _ := svgexport.ParseFormat(name)
			p, filename, err := a.graphs.Export(ctx, format)
			if err == nil {
				err = sink.Deliver(filename, p)
			}
			if err != nil {
				fmt.Printf("Export failed: %v\n", err)
				continue
			}
			if _, ok := sink.(delivery.Clipboard); ok {
				fmt.Printf("Copied as %s\n", format)
			} else {
				fmt.Printf("Downloaded %s\n", filename)
			}
		}
	},
}

// promptErr turns an interrupted prompt into a clean exit.
func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return nil
	}
	return fmt.Errorf("prompt: %w", err)
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
