package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/timelapse/cmd"
	"github.com/lepinkainen/timelapse/config"
	"github.com/lepinkainen/timelapse/logging"
	"github.com/lepinkainen/timelapse/types"
)

var Version = "dev"

type CLI struct {
	ConfigPath string           `name:"config" help:"Configuration file" type:"path" placeholder:"PATH"`
	LogLevel   string           `help:"Override the configured log level (debug, info, warn, error)"`
	Version    kong.VersionFlag `help:"Show version and exit"`

	Create  cmd.CreateCmd  `cmd:"" help:"Create a time lapse video from an image sequence"`
	Inspect cmd.InspectCmd `cmd:"" help:"Check an image sequence for unreadable files and jumps"`
	Check   cmd.CheckCmd   `cmd:"" help:"Check that ffmpeg and dcraw are installed"`
	Config  cmd.ConfigCmd  `cmd:"" help:"Show the effective configuration or write the defaults"`
}

// buildContext loads the configuration and logger shared by all commands
func buildContext(cli *CLI) (*types.AppContext, error) {
	cfg, _, _, err := config.Load(cli.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(cli.LogLevel)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}

	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return &types.AppContext{
		Version: Version,
		Config:  cfg,
		Logger:  logger,
	}, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("timelapse"),
		kong.Description("Assemble image sequences into time lapse videos"),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)

	appCtx, err := buildContext(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "timelapse: %v\n", err)
		os.Exit(1)
	}

	err = ctx.Run(appCtx)
	_ = appCtx.Logger.Sync()
	ctx.FatalIfErrorf(err)
}
