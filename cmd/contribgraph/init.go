package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/config"
	"github.com/benoitkugler/contribgraph/svgraster"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			cfg = config.DefaultConfig()
		}

		user, err := (&promptui.Prompt{
			Label:   "GitHub user name",
			Default: cfg.Username,
			Validate: func(s string) error {
				if s == "" {
					return errors.New("user name is required")
				}
				return nil
			},
		}).Run()
		if err != nil {
			return promptErr(err)
		}
		background, err := (&promptui.Prompt{
			Label:   "Image background color",
			Default: cfg.Background,
			Validate: func(s string) error {
				_, err := svgraster.ParseColor(s)
				return err
			},
		}).Run()
		if err != nil {
			return promptErr(err)
		}
		scale, err := (&promptui.Prompt{
			Label:   "Image scale",
			Default: strconv.Itoa(cfg.Scale),
			Validate: func(s string) error {
				if n, err := strconv.Atoi(s); err != nil || n < 1 {
					return errors.New("scale must be a positive integer")
				}
				return nil
			},
		}).Run()
		if err != nil {
			return promptErr(err)
		}
		output, err := (&promptui.Prompt{Label: "Output directory", Default: cfg.OutputDir}).Run()
		if err != nil {
			return promptErr(err)
		}

		cfg.Username, cfg.Background, cfg.OutputDir = user, background, output
		cfg.Scale, _ = strconv.Atoi(scale)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Printf("Configuration saved to %s\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
