package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"go.uber.org/zap"

	"github.com/lepinkainen/timelapse/timelapse"
	"github.com/lepinkainen/timelapse/types"
	"github.com/lepinkainen/timelapse/ui"
	"github.com/lepinkainen/timelapse/utils"
)

// InspectCmd decodes a sequence without encoding it and reports unreadable
// files and abrupt jumps between consecutive frames.
type InspectCmd struct {
	Paths     []string `arg:"" name:"paths" help:"Image files or directories containing images" type:"path"`
	Threshold int      `help:"Perceptual hash distance (0-64) reported as a jump, 0 uses the configured default" default:"0"`
	Workers   int      `help:"Number of parallel decoders" default:"0"`

	stdout io.Writer `kong:"-"`
}

// workerCount picks the decoder parallelism. Network drives get a single
// worker since parallel reads thrash the share.
func (cmd *InspectCmd) workerCount(configured int, paths []string) (int, bool) {
	workers := cmd.Workers
	if workers <= 0 {
		workers = configured
	}
	if workers > 0 {
		return workers, false
	}
	if utils.AnyOnNetworkDrive(paths) {
		return 1, true
	}
	return runtime.NumCPU(), false
}

func (cmd *InspectCmd) Run(appCtx *types.AppContext) error {
	app := appCtx.Resolve()
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	files, err := timelapse.ExpandPaths(cmd.Paths)
	if err != nil {
		return fmt.Errorf("failed to expand directories: %w", err)
	}
	if len(files) == 0 {
		return timelapse.ErrNoInput
	}
	sources := timelapse.NewSources(files)

	threshold := cmd.Threshold
	if threshold <= 0 {
		threshold = app.Config.Inspect.Threshold
	}

	workers, network := cmd.workerCount(app.Config.Inspect.Workers, files)
	if network {
		fmt.Fprintf(out, "⚠️  Network drive detected, using 1 worker for optimal performance\n")
	}

	fmt.Fprintln(out, ui.InfoStyle.Render(fmt.Sprintf("Inspecting %d images with %d workers...", len(sources), workers)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reports, err := timelapse.Inspect(ctx, sources, timelapse.InspectOptions{
		Decoders:  timelapse.DefaultDecoders(app.Config.Tools.DCRaw),
		Workers:   workers,
		Threshold: threshold,
	})
	if err != nil {
		return fmt.Errorf("inspection interrupted: %w", err)
	}

	app.Logger.Info("inspection finished",
		zap.Int("images", len(reports)),
		zap.Int("workers", workers),
		zap.Int("threshold", threshold))
	fmt.Fprint(out, ui.RenderInspect(reports))

	if len(reports) > 0 && reports[0].Err != nil {
		fmt.Fprintln(out, ui.ErrorStyle.Render("❌ The first image is unreadable, a time lapse cannot start from it"))
	}
	return nil
}
