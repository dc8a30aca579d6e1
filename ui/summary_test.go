package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lepinkainen/timelapse/timelapse"
)

func TestRenderSummary(t *testing.T) {
	result := &timelapse.Result{
		OutputPath:    "/videos/sunset.mp4",
		Width:         1920,
		Height:        1080,
		FrameRate:     24,
		FramesWritten: 48,
		Skipped: []*timelapse.DecodeError{
			{Path: "/photos/img_0007.cr2", Format: timelapse.FormatRaw, Err: errors.New("dcraw: cannot decode file")},
		},
		Elapsed:     3 * time.Second,
		OutputBytes: 2_500_000,
	}

	out := RenderSummary(result)
	for _, want := range []string{"/videos/sunset.mp4", "1920x1080", "24 fps", "48", "2s", "2.5 MB", "img_0007.cr2", "cannot decode file"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderSummary_PaddedResolution(t *testing.T) {
	result := &timelapse.Result{
		OutputPath:    "/videos/odd.mp4",
		Width:         81,
		Height:        61,
		StreamWidth:   82,
		StreamHeight:  62,
		FrameRate:     24,
		FramesWritten: 2,
	}

	out := RenderSummary(result)
	if !strings.Contains(out, "81x61 (padded to 82x62)") {
		t.Errorf("Expected padded resolution in summary, got:\n%s", out)
	}

	result.Width, result.Height = 82, 62
	if out := RenderSummary(result); strings.Contains(out, "padded") {
		t.Errorf("Expected no padding note for even sizes, got:\n%s", out)
	}
}

func TestRenderSummary_Nil(t *testing.T) {
	if RenderSummary(nil) != "" {
		t.Error("Expected empty summary for nil result")
	}
}

func TestRenderInspect(t *testing.T) {
	reports := []timelapse.FrameReport{
		{Source: timelapse.SourceImage{Path: "/p/a.jpg", Ordinal: 0}, Width: 64, Height: 48, Distance: -1},
		{Source: timelapse.SourceImage{Path: "/p/b.jpg", Ordinal: 1}, Width: 64, Height: 48, Distance: 3},
		{Source: timelapse.SourceImage{Path: "/p/c.jpg", Ordinal: 2}, Width: 64, Height: 48, Distance: 40, Jump: true},
		{Source: timelapse.SourceImage{Path: "/p/d.jpg", Ordinal: 3}, Distance: -1,
			Err: &timelapse.DecodeError{Path: "/p/d.jpg", Err: errors.New("unexpected EOF")}},
	}

	out := RenderInspect(reports)
	for _, want := range []string{"a.jpg", "64x48", "40", "jump", "unreadable: unexpected EOF", "4 images", "1 jumps, 1 unreadable"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected inspect table to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRunPlain(t *testing.T) {
	events := make(chan timelapse.Event, 4)
	de := &timelapse.DecodeError{Path: "/p/b.jpg", Err: errors.New("bad data")}
	events <- timelapse.Event{Kind: timelapse.EventProgress, Processed: 1, Total: 3, Path: "/p/a.jpg"}
	events <- timelapse.Event{Kind: timelapse.EventFileError, Processed: 2, Total: 3, Path: "/p/b.jpg", Err: de}
	events <- timelapse.Event{Kind: timelapse.EventProgress, Processed: 3, Total: 3, Path: "/p/c.jpg"}
	events <- timelapse.Event{Kind: timelapse.EventCompleted, Processed: 3, Total: 3, Status: timelapse.StatusSuccess}
	close(events)

	var out bytes.Buffer
	final, err := RunPlain(events, &out, 3)
	if err != nil {
		t.Fatalf("RunPlain() error: %v", err)
	}
	if final.Kind != timelapse.EventCompleted {
		t.Errorf("Expected completed event, got %v", final.Kind)
	}
	if !strings.Contains(out.String(), "/p/b.jpg: bad data") {
		t.Errorf("Expected file error line, got:\n%s", out.String())
	}
}

func TestRunPlain_NoTerminalEvent(t *testing.T) {
	events := make(chan timelapse.Event)
	close(events)

	if _, err := RunPlain(events, &bytes.Buffer{}, 1); err == nil {
		t.Error("Expected error when the channel closes without a terminal event")
	}
}
