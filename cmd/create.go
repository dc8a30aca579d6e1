package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/lepinkainen/timelapse/config"
	"github.com/lepinkainen/timelapse/logging"
	"github.com/lepinkainen/timelapse/timelapse"
	"github.com/lepinkainen/timelapse/types"
	"github.com/lepinkainen/timelapse/ui"
	"github.com/lepinkainen/timelapse/utils"
)

type CreateCmd struct {
	Paths  []string `arg:"" name:"paths" help:"Image files or directories containing images" type:"path"`
	Output string   `short:"o" help:"Output video file (.mp4 is added if there is no extension)" required:"" type:"path"`
	FPS    int      `help:"Frames per second (1-60), 0 uses the configured default" default:"0"`
	Size   string   `help:"Output size: original, 4k, 1080p, 720p or 480p (default from config)"`
	NoTUI  bool     `name:"no-tui" help:"Plain progress output even on a terminal"`
	Force  bool     `help:"Overwrite an existing output file"`

	stdout io.Writer `kong:"-"`
}

// runParams merges the flags over the configured defaults
func (cmd *CreateCmd) runParams(cfg *config.Config) (int, timelapse.SizePreset, error) {
	fps := cfg.Output.FrameRate
	if cmd.FPS != 0 {
		fps = cmd.FPS
	}

	preset := cfg.Output.Size
	if cmd.Size != "" {
		p, err := timelapse.ParseSizePreset(cmd.Size)
		if err != nil {
			return 0, 0, err
		}
		preset = p
	}

	return fps, preset, nil
}

// prepare builds the run configuration from the command line
func (cmd *CreateCmd) prepare(app *types.AppContext) (timelapse.Config, error) {
	fps, preset, err := cmd.runParams(app.Config)
	if err != nil {
		return timelapse.Config{}, err
	}

	files, err := timelapse.ExpandPaths(cmd.Paths)
	if err != nil {
		return timelapse.Config{}, fmt.Errorf("failed to expand directories: %w", err)
	}

	runCfg, err := timelapse.NewConfig(files, fps, preset, cmd.Output)
	if err != nil {
		return timelapse.Config{}, err
	}

	if !cmd.Force {
		if _, err := os.Stat(runCfg.OutputPath); err == nil {
			return timelapse.Config{}, fmt.Errorf("%s already exists, use --force to overwrite", runCfg.OutputPath)
		}
	}

	return runCfg, nil
}

func (cmd *CreateCmd) Run(appCtx *types.AppContext) error {
	app := appCtx.Resolve()
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	runCfg, err := cmd.prepare(app)
	if err != nil {
		return err
	}

	if err := utils.ValidateEncoderDependencies(app.Config.Tools.FFmpeg); err != nil {
		return err
	}

	paths := make([]string, len(runCfg.Sources))
	for i, src := range runCfg.Sources {
		paths[i] = src.Path
	}
	if utils.AnyOnNetworkDrive(paths) {
		fmt.Fprintf(out, "⚠️  Network drive detected, decoding may be slow\n")
	}

	useTUI := !cmd.NoTUI && cmd.stdout == nil && isatty.IsTerminal(os.Stdout.Fd())

	// The TUI owns the terminal, so logs go to the file only
	logger := app.Logger
	if useTUI {
		opts := logging.FromConfig(app.Config.Logging)
		opts.Console = false
		if l, err := logging.New(opts); err == nil {
			logger = l
			defer func() { _ = l.Sync() }()
		}
	}

	runner := timelapse.NewRunner(
		timelapse.WithDecoders(timelapse.DefaultDecoders(app.Config.Tools.DCRaw)),
		timelapse.WithSinkOpener(timelapse.FFmpegOpener(app.Config.EncoderOptions())),
		timelapse.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(runCfg.Sources)
	if !useTUI {
		fmt.Fprintln(out, ui.HeaderStyle.Render(fmt.Sprintf("Time Lapse Creator %s", app.Version)))
		fmt.Fprintln(out, ui.ProcessingStyle.Render(fmt.Sprintf("Processing %d images at %d fps (%s):", total, runCfg.FrameRate, runCfg.Preset.Label())))
	}

	events, err := runner.Start(ctx, runCfg)
	if err != nil {
		return err
	}

	var final *timelapse.Event
	if useTUI {
		final, err = ui.RunTUI(events, total, cancel, app.Version)
	} else {
		final, err = ui.RunPlain(events, out, total)
	}
	if err != nil {
		// Stop the run and wait for it to finalize the output
		cancel()
		for range events {
		}
		return err
	}

	return cmd.report(out, final)
}

// report prints the outcome of a run and converts a failure into an error
func (cmd *CreateCmd) report(out io.Writer, final *timelapse.Event) error {
	if final.Result != nil && final.Result.FramesWritten > 0 {
		fmt.Fprint(out, ui.RenderSummary(final.Result))
	}

	if final.Kind == timelapse.EventFailed {
		fmt.Fprintf(out, "%s\n", ui.ErrorStyle.Render("❌ "+final.Status))
		return fmt.Errorf("time lapse failed: %w", final.Err)
	}

	fmt.Fprintf(out, "%s\n", ui.SuccessStyle.Render("✅ "+final.Status))
	return nil
}
