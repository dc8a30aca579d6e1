package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/lepinkainen/timelapse/timelapse"
)

// RenderSummary formats a finished run as a table
func RenderSummary(result *timelapse.Result) string {
	if result == nil {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRow(table.Row{"Output", result.OutputPath})
	resolution := fmt.Sprintf("%dx%d", result.Width, result.Height)
	if result.StreamWidth != 0 && (result.StreamWidth != result.Width || result.StreamHeight != result.Height) {
		resolution += fmt.Sprintf(" (padded to %dx%d)", result.StreamWidth, result.StreamHeight)
	}
	tw.AppendRow(table.Row{"Resolution", resolution})
	tw.AppendRow(table.Row{"Frame rate", fmt.Sprintf("%d fps", result.FrameRate)})
	tw.AppendRow(table.Row{"Frames", result.FramesWritten})
	if result.FrameRate > 0 {
		duration := time.Duration(result.FramesWritten) * time.Second / time.Duration(result.FrameRate)
		tw.AppendRow(table.Row{"Duration", duration.Round(10 * time.Millisecond).String()})
	}
	tw.AppendRow(table.Row{"Skipped", len(result.Skipped)})
	if result.OutputBytes > 0 {
		tw.AppendRow(table.Row{"Size", humanize.Bytes(uint64(result.OutputBytes))})
	}
	tw.AppendRow(table.Row{"Elapsed", result.Elapsed.Round(time.Millisecond).String()})

	var b strings.Builder
	b.WriteString(tw.Render())
	b.WriteString("\n")

	if len(result.Skipped) > 0 {
		b.WriteString(WarningStyle.Render("Skipped images:"))
		b.WriteString("\n")
		for _, skipped := range result.Skipped {
			fmt.Fprintf(&b, "  %s: %s\n", skipped.Path, decodeCause(skipped))
		}
	}
	return b.String()
}

// RenderInspect formats sequence inspection results as a table
func RenderInspect(reports []timelapse.FrameReport) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"#", "File", "Size", "Distance", "Note"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	jumps, unreadable := 0, 0
	for _, r := range reports {
		size, distance, note := "", "", ""
		switch {
		case r.Err != nil:
			unreadable++
			note = "unreadable: " + decodeCause(r.Err)
		default:
			size = fmt.Sprintf("%dx%d", r.Width, r.Height)
			if r.Distance >= 0 {
				distance = fmt.Sprintf("%d", r.Distance)
			}
			if r.Jump {
				jumps++
				note = "jump"
			}
		}
		tw.AppendRow(table.Row{r.Source.Ordinal + 1, filepath.Base(r.Source.Path), size, distance, note})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d images", len(reports)), "", "", fmt.Sprintf("%d jumps, %d unreadable", jumps, unreadable)})

	return tw.Render() + "\n"
}
