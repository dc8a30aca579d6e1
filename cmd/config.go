package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/lepinkainen/timelapse/config"
	"github.com/lepinkainen/timelapse/types"
	"github.com/lepinkainen/timelapse/ui"
)

// ConfigCmd prints the effective configuration or writes the defaults file
type ConfigCmd struct {
	Write string `help:"Write the default configuration to this path" type:"path" placeholder:"PATH"`

	stdout io.Writer `kong:"-"`
}

func (cmd *ConfigCmd) Run(appCtx *types.AppContext) error {
	app := appCtx.Resolve()
	out := cmd.stdout
	if out == nil {
		out = os.Stdout
	}

	if cmd.Write != "" {
		if err := config.WriteDefault(cmd.Write); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf("✅ Wrote %s", cmd.Write)))
		return nil
	}

	data, err := app.Config.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}
