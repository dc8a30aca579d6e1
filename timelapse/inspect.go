package timelapse

import (
	"context"
	"fmt"
	"runtime"

	"github.com/corona10/goimagehash"
	"golang.org/x/sync/errgroup"
)

// DefaultJumpThreshold is the perceptual hash distance (0-64) above which two
// consecutive frames are reported as a jump
const DefaultJumpThreshold = 20

// InspectOptions configures a sequence inspection
type InspectOptions struct {
	Decoders  Decoders
	Workers   int // parallel decoders, <=0 means NumCPU
	Threshold int // jump threshold, <=0 means DefaultJumpThreshold
}

// FrameReport describes one source as it would enter the pipeline
type FrameReport struct {
	Source   SourceImage
	Width    int
	Height   int
	Hash     *goimagehash.ImageHash
	Distance int  // perceptual distance to the previous readable frame, -1 if none
	Jump     bool // Distance exceeds the threshold
	Err      error
}

// Inspect decodes every source and flags abrupt visual changes between
// consecutive readable frames, which usually means a file from another
// sequence slipped into the selection. Sources are decoded concurrently;
// reports come back in source order. Unreadable files are reported, not fatal.
func Inspect(ctx context.Context, sources []SourceImage, opts InspectOptions) ([]FrameReport, error) {
	decoders := opts.Decoders
	if decoders == nil {
		decoders = DefaultDecoders(DefaultRawConverter)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultJumpThreshold
	}

	reports := make([]FrameReport, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = inspectOne(decoders, src)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	prev := -1
	for i := range reports {
		reports[i].Distance = -1
		if reports[i].Hash == nil {
			continue
		}
		if prev >= 0 {
			distance, err := reports[prev].Hash.Distance(reports[i].Hash)
			if err != nil {
				reports[i].Err = fmt.Errorf("compare with %s: %w", reports[prev].Source.Path, err)
			} else {
				reports[i].Distance = distance
				reports[i].Jump = distance > threshold
			}
		}
		prev = i
	}

	return reports, nil
}

func inspectOne(decoders Decoders, src SourceImage) FrameReport {
	report := FrameReport{Source: src, Distance: -1}

	frame, err := decoders.Decode(src)
	if err != nil {
		report.Err = err
		return report
	}
	b := frame.Bounds()
	report.Width, report.Height = b.Dx(), b.Dy()

	hash, err := goimagehash.PerceptionHash(frame)
	if err != nil {
		report.Err = fmt.Errorf("failed to calculate perceptual hash: %w", err)
		return report
	}
	report.Hash = hash
	return report
}
