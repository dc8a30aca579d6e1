package timelapse

import "fmt"

// InputError rejects a run before it starts. No state is touched.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

var (
	// ErrNoInput is returned when a run is requested with an empty source list
	ErrNoInput = &InputError{Reason: "no input images selected"}
	// ErrBusy is returned when a run is requested while another is active
	ErrBusy = &InputError{Reason: "already processing"}
)

// DecodeError describes a single source file that could not be decoded
type DecodeError struct {
	Path   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncoderOpenError means the output sink could not be created
type EncoderOpenError struct {
	Path string
	Err  error
}

func (e *EncoderOpenError) Error() string {
	return fmt.Sprintf("open encoder for %s: %v", e.Path, e.Err)
}

func (e *EncoderOpenError) Unwrap() error { return e.Err }

// EncoderWriteError means appending a frame, or finalizing the container, failed.
// Frame is the zero-based output frame index, or -1 for finalize failures.
type EncoderWriteError struct {
	Frame int
	Err   error
}

func (e *EncoderWriteError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("finalize video: %v", e.Err)
	}
	return fmt.Sprintf("write frame %d: %v", e.Frame, e.Err)
}

func (e *EncoderWriteError) Unwrap() error { return e.Err }

// UnexpectedError wraps any other fault caught at the runner boundary
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
