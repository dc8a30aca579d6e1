package timelapse

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
)

// EncoderOptions holds configuration for the ffmpeg video encoder
type EncoderOptions struct {
	Binary string // ffmpeg executable
	Codec  string // video codec, e.g. libx264
	CRF    int    // Constant Rate Factor (0-51, lower=better)
	Preset string // x264 preset (ultrafast ... veryslow)
}

// DefaultEncoderOptions returns H.264 settings that play everywhere
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{
		Binary: "ffmpeg",
		Codec:  "libx264",
		CRF:    20,
		Preset: "medium",
	}
}

// FrameSink accepts frames in order and finalizes the output on Close.
// Close must be safe to call more than once.
type FrameSink interface {
	WriteFrame(frame *image.RGBA) error
	Close() error
}

// SinkOpener creates the sink for a run once the target size is known
type SinkOpener func(path string, fps, width, height int) (FrameSink, error)

// Encoder streams raw RGBA frames into an ffmpeg process writing an MP4 file
type Encoder struct {
	path   string
	width  int
	height int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	frames int
	once   sync.Once
	err    error
}

// OpenEncoder starts ffmpeg for a width x height stream at fps frames per second.
// The process is not tied to any context: a cancelled run must still be able
// to finalize the container through Close.
func OpenEncoder(opts EncoderOptions, path string, fps, width, height int) (*Encoder, error) {
	if width <= 0 || height <= 0 {
		return nil, &EncoderOpenError{Path: path, Err: fmt.Errorf("invalid frame size %dx%d", width, height)}
	}
	if fps < MinFrameRate || fps > MaxFrameRate {
		return nil, &EncoderOpenError{Path: path, Err: fmt.Errorf("frame rate %d out of range", fps)}
	}

	dir := filepath.Dir(path)
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, &EncoderOpenError{Path: path, Err: fmt.Errorf("output directory: %w", err)}
	}
	if !fi.IsDir() {
		return nil, &EncoderOpenError{Path: path, Err: fmt.Errorf("output directory %s is not a directory", dir)}
	}

	if opts.Binary == "" {
		opts.Binary = DefaultEncoderOptions().Binary
	}

	e := &Encoder{path: path, width: width, height: height}
	e.cmd = exec.Command(opts.Binary, encoderArgs(opts, path, fps, width, height)...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, &EncoderOpenError{Path: path, Err: err}
	}
	e.stdin = stdin

	if err := e.cmd.Start(); err != nil {
		return nil, &EncoderOpenError{Path: path, Err: fmt.Errorf("start %s: %w", opts.Binary, err)}
	}
	return e, nil
}

// FFmpegOpener returns a SinkOpener that uses OpenEncoder with opts
func FFmpegOpener(opts EncoderOptions) SinkOpener {
	return func(path string, fps, width, height int) (FrameSink, error) {
		enc, err := OpenEncoder(opts, path, fps, width, height)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
}

// StreamSize is the size of the encoded video for width x height frames.
// yuv420p needs even dimensions, so an odd side gains one pixel of padding
// on the right or bottom edge.
func StreamSize(width, height int) (int, int) {
	return width + width%2, height + height%2
}

// encoderArgs builds the ffmpeg command line
func encoderArgs(opts EncoderOptions, path string, fps, width, height int) []string {
	codec := opts.Codec
	if codec == "" {
		codec = "libx264"
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-an",
		"-c:v", codec,
	}
	if codec == "libx264" || codec == "libx265" {
		args = append(args, "-crf", strconv.Itoa(opts.CRF))
		if opts.Preset != "" {
			args = append(args, "-preset", opts.Preset)
		}
	}
	if sw, sh := StreamSize(width, height); sw != width || sh != height {
		args = append(args, "-vf", fmt.Sprintf("pad=%d:%d:0:0", sw, sh))
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(fps),
		"-movflags", "+faststart",
		path,
	)
	return args
}

// WriteFrame appends one frame. Frames are written in call order.
func (e *Encoder) WriteFrame(frame *image.RGBA) error {
	if e.stdin == nil {
		return &EncoderWriteError{Frame: e.frames, Err: errors.New("encoder is closed")}
	}
	b := frame.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return &EncoderWriteError{Frame: e.frames, Err: fmt.Errorf("frame is %dx%d, encoder expects %dx%d", b.Dx(), b.Dy(), e.width, e.height)}
	}

	if err := writeRows(e.stdin, frame); err != nil {
		return e.writeFailed(err)
	}
	e.frames++
	return nil
}

// writeFailed reaps ffmpeg after a broken pipe so its stderr can explain the
// failure. Before the first frame is accepted the encoder never really opened.
func (e *Encoder) writeFailed(err error) error {
	_ = e.finish()
	err = fmt.Errorf("%w: %s", err, firstLine(e.stderr.String()))
	if e.frames == 0 {
		e.err = &EncoderOpenError{Path: e.path, Err: err}
	} else {
		e.err = &EncoderWriteError{Frame: e.frames, Err: err}
	}
	return e.err
}

// writeRows writes the pixel data without the stride padding of sub-images
func writeRows(w io.Writer, frame *image.RGBA) error {
	b := frame.Bounds()
	rowLen := b.Dx() * 4
	if frame.Stride == rowLen {
		_, err := w.Write(frame.Pix[:rowLen*b.Dy()])
		return err
	}
	for y := 0; y < b.Dy(); y++ {
		off := y * frame.Stride
		if _, err := w.Write(frame.Pix[off : off+rowLen]); err != nil {
			return err
		}
	}
	return nil
}

// Frames returns the number of frames written so far
func (e *Encoder) Frames() int { return e.frames }

// Close ends the input stream and waits for ffmpeg to finish the container.
// After a failed WriteFrame it returns that error again.
func (e *Encoder) Close() error {
	return e.finish()
}

func (e *Encoder) finish() error {
	e.once.Do(func() {
		closeErr := e.stdin.Close()
		waitErr := e.cmd.Wait()
		e.stdin = nil

		switch {
		case waitErr != nil:
			e.err = &EncoderWriteError{Frame: -1, Err: fmt.Errorf("%w: %s", waitErr, firstLine(e.stderr.String()))}
		case closeErr != nil:
			e.err = &EncoderWriteError{Frame: -1, Err: closeErr}
		}
	})
	return e.err
}
