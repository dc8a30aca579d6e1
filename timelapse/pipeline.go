package timelapse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MinFrameRate     = 1
	MaxFrameRate     = 60
	DefaultFrameRate = 24
)

// Status messages published to the collaborator
const (
	StatusReady   = "Ready"
	StatusSuccess = "Time lapse created successfully!"
	StatusFailure = "Error occurred during processing"
)

// Config describes one run. Build it with NewConfig and do not modify it afterwards.
type Config struct {
	FrameRate  int
	Preset     SizePreset
	Sources    []SourceImage
	OutputPath string
}

// NewConfig validates the run parameters and fixes the source order.
// An output path without an extension gets ".mp4".
func NewConfig(paths []string, fps int, preset SizePreset, outputPath string) (Config, error) {
	if len(paths) == 0 {
		return Config{}, ErrNoInput
	}
	if outputPath != "" && filepath.Ext(outputPath) == "" {
		outputPath += ".mp4"
	}
	cfg := Config{
		FrameRate:  fps,
		Preset:     preset,
		Sources:    NewSources(paths),
		OutputPath: outputPath,
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return ErrNoInput
	}
	if c.FrameRate < MinFrameRate || c.FrameRate > MaxFrameRate {
		return &InputError{Reason: fmt.Sprintf("frame rate %d outside %d-%d", c.FrameRate, MinFrameRate, MaxFrameRate)}
	}
	if c.OutputPath == "" {
		return &InputError{Reason: "no output path given"}
	}
	if _, ok := presets[c.Preset]; !ok {
		return &InputError{Reason: fmt.Sprintf("unknown size preset %d", int(c.Preset))}
	}
	if !sort.SliceIsSorted(c.Sources, func(i, j int) bool { return c.Sources[i].Path < c.Sources[j].Path }) {
		return &InputError{Reason: "source list is not sorted"}
	}
	return nil
}

// Phase is the runner lifecycle state
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// RunState is a snapshot of the runner, safe to read from any goroutine
type RunState struct {
	RunID     string
	Phase     Phase
	Outcome   Phase // terminal phase of the most recent run, PhaseIdle if none
	Processed int
	Total     int
	Status    string
	Running   bool
}

// EventKind tells the collaborator what an Event reports
type EventKind int

const (
	EventProgress EventKind = iota
	EventFileError
	EventCompleted
	EventFailed
)

// Event is pushed to the collaborator after every source and once at the end
type Event struct {
	Kind      EventKind
	RunID     string
	Processed int
	Total     int
	Status    string
	Path      string  // source path for progress and file-error events
	Err       error   // *DecodeError for file errors, the fatal cause for EventFailed
	Result    *Result // set on terminal events
}

// Terminal reports whether this is the last event of a run
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventFailed
}

// Result summarizes a finished run
type Result struct {
	RunID         string
	OutputPath    string
	Width         int
	Height        int
	StreamWidth   int // encoded size, see StreamSize
	StreamHeight  int
	FrameRate     int
	FramesWritten int
	Skipped       []*DecodeError
	Elapsed       time.Duration
	OutputBytes   int64
}

// Runner drives the pipeline. One Runner allows a single active run at a time.
type Runner struct {
	decoders Decoders
	open     SinkOpener
	logger   *zap.Logger

	running atomic.Bool
	mu      sync.RWMutex
	state   RunState
}

// Option configures a Runner
type Option func(*Runner)

// WithDecoders replaces the format decoders
func WithDecoders(d Decoders) Option {
	return func(r *Runner) { r.decoders = d }
}

// WithSinkOpener replaces the video sink factory
func WithSinkOpener(open SinkOpener) Option {
	return func(r *Runner) { r.open = open }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner returns an idle runner using dcraw for raw files and ffmpeg for output
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		decoders: DefaultDecoders(DefaultRawConverter),
		open:     FFmpegOpener(DefaultEncoderOptions()),
		logger:   zap.NewNop(),
		state:    RunState{Phase: PhaseIdle, Status: StatusReady},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns a copy of the current run state
func (r *Runner) State() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Running reports whether a run is active
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Start validates cfg and launches the run in the background. The returned
// channel receives one event per source and a terminal event, then closes.
// It is buffered so the run never waits on the reader.
//
// ctx is checked between frames; cancelling it fails the run after the
// current frame, with the output finalized.
func (r *Runner) Start(ctx context.Context, cfg Config) (<-chan Event, error) {
	if len(cfg.Sources) == 0 {
		return nil, ErrNoInput
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	lock, err := acquireOutputLock(cfg.OutputPath)
	if err != nil {
		r.running.Store(false)
		var ie *InputError
		if errors.As(err, &ie) {
			return nil, err
		}
		return nil, &InputError{Reason: err.Error()}
	}

	runID := uuid.NewString()
	total := len(cfg.Sources)

	r.mu.Lock()
	r.state = RunState{
		RunID:   runID,
		Phase:   PhaseRunning,
		Outcome: r.state.Outcome,
		Total:   total,
		Status:  "Starting",
		Running: true,
	}
	r.mu.Unlock()

	events := make(chan Event, total+2)
	go r.execute(ctx, cfg, runID, lock, events)
	return events, nil
}

// Run is the blocking form of Start: it waits for the run to end and returns its result
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	events, err := r.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		result *Result
		runErr error
	)
	for ev := range events {
		if ev.Terminal() {
			result, runErr = ev.Result, ev.Err
		}
	}
	return result, runErr
}

func (r *Runner) execute(ctx context.Context, cfg Config, runID string, lock *outputLock, events chan<- Event) {
	start := time.Now()
	log := r.logger.With(zap.String("run_id", runID))
	result := &Result{RunID: runID, OutputPath: cfg.OutputPath, FrameRate: cfg.FrameRate}

	var (
		sink FrameSink
		err  error
	)

	defer func() {
		if rec := recover(); rec != nil {
			err = &UnexpectedError{Err: fmt.Errorf("panic: %v", rec)}
		}
		if sink != nil {
			if cerr := sink.Close(); cerr != nil && err == nil {
				var we *EncoderWriteError
				if !errors.As(cerr, &we) {
					cerr = &EncoderWriteError{Frame: -1, Err: cerr}
				}
				err = cerr
			}
		}
		result.Elapsed = time.Since(start)

		final := Event{RunID: runID, Total: len(cfg.Sources), Result: result}
		outcome := PhaseCompleted
		if err != nil {
			outcome = PhaseFailed
			final.Kind = EventFailed
			final.Status = StatusFailure
			final.Err = err
			log.Error("time lapse failed",
				zap.Int("frames_written", result.FramesWritten),
				zap.Error(err))
		} else {
			if fi, statErr := os.Stat(cfg.OutputPath); statErr == nil {
				result.OutputBytes = fi.Size()
			}
			final.Kind = EventCompleted
			final.Status = StatusSuccess
			log.Info("time lapse created",
				zap.String("output", cfg.OutputPath),
				zap.Int("frames_written", result.FramesWritten),
				zap.Int("skipped", len(result.Skipped)),
				zap.Duration("elapsed", result.Elapsed))
		}

		if lerr := lock.release(); lerr != nil {
			log.Warn("failed to release output lock", zap.Error(lerr))
		}

		r.mu.Lock()
		final.Processed = r.state.Processed
		r.state = RunState{RunID: runID, Phase: PhaseIdle, Outcome: outcome, Status: final.Status}
		r.running.Store(false)
		r.mu.Unlock()

		events <- final
		close(events)
	}()

	log.Info("time lapse started",
		zap.Int("sources", len(cfg.Sources)),
		zap.Int("fps", cfg.FrameRate),
		zap.String("size", cfg.Preset.String()),
		zap.String("output", cfg.OutputPath))

	err = r.process(ctx, cfg, result, &sink, events, log)
}

// process runs decode, normalize and write for every source in order.
// It returns the first fatal error; per-file decode errors are reported and skipped.
func (r *Runner) process(ctx context.Context, cfg Config, result *Result, sink *FrameSink, events chan<- Event, log *zap.Logger) error {
	total := len(cfg.Sources)

	for i, src := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled before image %d/%d: %w", i+1, total, err)
		}

		status := fmt.Sprintf("Processing image %d/%d", i+1, total)
		r.setStatus(status)

		frame, err := r.decoders.Decode(src)
		if err != nil {
			if i == 0 {
				return fmt.Errorf("could not read first image: %w", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				de = &DecodeError{Path: src.Path, Format: src.Format, Err: err}
			}
			result.Skipped = append(result.Skipped, de)
			log.Warn("skipping unreadable image", zap.String("path", src.Path), zap.Error(err))

			events <- Event{Kind: EventFileError, RunID: result.RunID, Processed: r.advance(), Total: total, Status: status, Path: src.Path, Err: de}
			continue
		}

		if *sink == nil {
			b := frame.Bounds()
			result.Width, result.Height = Resolve(cfg.Preset, b.Dx(), b.Dy())
			result.StreamWidth, result.StreamHeight = StreamSize(result.Width, result.Height)
			log.Info("resolved output size",
				zap.Int("native_width", b.Dx()),
				zap.Int("native_height", b.Dy()),
				zap.Int("width", result.Width),
				zap.Int("height", result.Height))

			s, err := r.open(cfg.OutputPath, cfg.FrameRate, result.Width, result.Height)
			if err != nil {
				var oe *EncoderOpenError
				if !errors.As(err, &oe) {
					err = &EncoderOpenError{Path: cfg.OutputPath, Err: err}
				}
				return err
			}
			*sink = s
		}

		frame = Normalize(frame, result.Width, result.Height)
		if err := (*sink).WriteFrame(frame); err != nil {
			var (
				oe *EncoderOpenError
				we *EncoderWriteError
			)
			if !errors.As(err, &oe) && !errors.As(err, &we) {
				err = &EncoderWriteError{Frame: result.FramesWritten, Err: err}
			}
			return err
		}
		result.FramesWritten++

		events <- Event{Kind: EventProgress, RunID: result.RunID, Processed: r.advance(), Total: total, Status: status, Path: src.Path}
	}

	return nil
}

func (r *Runner) setStatus(status string) {
	r.mu.Lock()
	r.state.Status = status
	r.mu.Unlock()
}

// advance counts one more handled source and returns the new count
func (r *Runner) advance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Processed++
	return r.state.Processed
}
