package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/lepinkainen/timelapse/timelapse"
)

// RunPlain reports run progress as a plain progress bar for non-interactive
// output. Per-file decode failures are printed as they happen. It returns the
// terminal event.
func RunPlain(events <-chan timelapse.Event, w io.Writer, total int) (*timelapse.Event, error) {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Creating time lapse"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	for ev := range events {
		switch ev.Kind {
		case timelapse.EventProgress:
			_ = bar.Set(ev.Processed)
		case timelapse.EventFileError:
			_ = bar.Clear()
			fmt.Fprintf(w, "❌ %s: %s\n", ev.Path, decodeCause(ev.Err))
			_ = bar.Set(ev.Processed)
		case timelapse.EventCompleted, timelapse.EventFailed:
			if ev.Kind == timelapse.EventCompleted {
				_ = bar.Finish()
			} else {
				_ = bar.Clear()
			}
			final := ev
			// Drain until the runner closes the channel
			for range events {
			}
			return &final, nil
		}
	}

	return nil, errors.New("time lapse run ended without a result")
}
