package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/themes"
)

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the years with contributions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true, false)
		if err != nil {
			return err
		}
		years, err := a.graphs.Years(cmd.Context())
		if err != nil {
			return err
		}
		if len(years) == 0 {
			fmt.Println("No years found.")
			return nil
		}
		for _, y := range years {
			fmt.Println(y)
		}
		return nil
	},
}

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the color themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, t := range themes.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Label, t.Background)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd, themesCmd)
}
