package timelapse

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writePNG creates a solid-color PNG test fixture
func writePNG(t *testing.T, dir, name string, w, h int, c color.RGBA) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, solidImage(w, h, c)); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	return path
}

// writeJPEG creates a solid-color JPEG test fixture
func writeJPEG(t *testing.T, dir, name string, w, h int, c color.RGBA) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, solidImage(w, h, c), nil); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
	return path
}

// writeGarbage creates a file that no decoder accepts
func writeGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("This is not an image file"), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	return path
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// recordingSink is a FrameSink that remembers what it was given
type recordingSink struct {
	mu       sync.Mutex
	path     string
	fps      int
	width    int
	height   int
	frames   []image.Rectangle
	closed   int
	failAt   int // frame index that fails, -1 for never
	failErr  error
	panicAt  int // frame index that panics, -1 for never
	closeErr error
}

func (s *recordingSink) WriteFrame(frame *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.frames)
	if n == s.panicAt {
		panic("sink exploded")
	}
	if n == s.failAt {
		if s.failErr != nil {
			return s.failErr
		}
		return os.ErrClosed
	}
	s.frames = append(s.frames, frame.Bounds())
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return s.closeErr
}

// sinkRecorder hands out recordingSinks and counts open calls
type sinkRecorder struct {
	sink    *recordingSink
	opened  int
	openErr error
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{sink: &recordingSink{failAt: -1, panicAt: -1}}
}

func (r *sinkRecorder) open(path string, fps, width, height int) (FrameSink, error) {
	r.opened++
	if r.openErr != nil {
		return nil, r.openErr
	}
	r.sink.path = path
	r.sink.fps = fps
	r.sink.width = width
	r.sink.height = height
	return r.sink, nil
}
