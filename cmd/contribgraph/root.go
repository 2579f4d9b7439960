package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/benoitkugler/contribgraph/browser"
	"github.com/benoitkugler/contribgraph/config"
	"github.com/benoitkugler/contribgraph/graphapi"
	"github.com/benoitkugler/contribgraph/svgexport"
)

var (
	cfgFile  string
	userFlag string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "contribgraph",
	Short: "Export contribution graphs as SVG, PNG, JSON or PDF",
	Long: `contribgraph fetches the contribution graphs of a user from the
graph service, for each year and color theme, and exports them.
Image exports are sanitized and rasterized locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "user name, overriding the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app gathers the components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *svgexport.Pipeline
	graphs   *browser.Browser
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `contribgraph init` to create a config file", err)
	}
	if userFlag != "" {
		cfg.Username = userFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, jsonLogs bool) *slog.Logger {
	level, _ := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newApp builds the components. needUser is false for the
// commands working on local files.
func newApp(needUser, jsonLogs bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if needUser && cfg.Username == "" {
		return nil, errors.New("no user name: set username in the config or use --user")
	}
	logger := newLogger(cfg, jsonLogs)
	slog.SetDefault(logger)

	pipeline := svgexport.New(svgexport.Options{
		CleanSVG:        cfg.CleanSVG,
		PreserveTooltip: cfg.PreserveTooltip,
		Raster:          cfg.RasterOptions(),
		Logger:          logger,
	})
	client := graphapi.New(cfg.BaseURL, cfg.Timeout)
	return &app{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		graphs:   browser.New(client, cfg.Username, pipeline, logger),
	}, nil
}
