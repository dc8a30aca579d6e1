package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lepinkainen/timelapse/types"
	"github.com/lepinkainen/timelapse/ui"
	"github.com/lepinkainen/timelapse/utils"
)

// CheckCmd reports whether the external tools are installed
type CheckCmd struct {
	stdout io.Writer `kong:"-"`
}

func (cmd *CheckCmd) Run(appCtx *types.AppContext) error {
	app := appCtx.Resolve()
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	missing := 0
	for _, status := range utils.CheckTools(utils.PipelineTools(app.Config.Tools.FFmpeg, app.Config.Tools.DCRaw)) {
		switch {
		case status.Found():
			fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf("✅ %s: %s", status.Tool.Name, status.Path)))
		case status.Tool.Required:
			missing++
			fmt.Fprintln(out, ui.ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", status.Tool.Name, status.Err)))
		default:
			fmt.Fprintln(out, ui.WarningStyle.Render(fmt.Sprintf("⚠️  %s (raw images only): %v", status.Tool.Name, status.Err)))
		}
	}

	if missing > 0 {
		return errors.New("required tools are missing")
	}
	return nil
}
