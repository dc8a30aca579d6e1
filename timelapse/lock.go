package timelapse

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// outputLock guards an output path against a second process writing it.
// The lock file lives in the temp dir, keyed by the absolute output path,
// so it works before the output directory is known to exist.
type outputLock struct {
	lock *flock.Flock
}

func lockPathFor(outputPath string) string {
	abs, err := filepath.Abs(outputPath)
	if err != nil {
		abs = outputPath
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("timelapse-%08X.lock", crc32.ChecksumIEEE([]byte(abs))))
}

// acquireOutputLock takes the lock without blocking. A lock taken on a file
// that a finishing run has already unlinked is dropped and retried, so two
// runs never hold different inodes for the same path.
func acquireOutputLock(outputPath string) (*outputLock, error) {
	path := lockPathFor(outputPath)
	for attempt := 0; attempt < 3; attempt++ {
		fl := flock.New(path)
		ok, err := fl.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return nil, &InputError{Reason: fmt.Sprintf("%s is being written by another process", outputPath)}
		}
		if lockedCurrentFile(fl) {
			return &outputLock{lock: fl}, nil
		}
		_ = fl.Close()
	}
	return nil, &InputError{Reason: fmt.Sprintf("%s is being written by another process", outputPath)}
}

// lockedCurrentFile reports whether the locked handle is still the file
// the lock path names
func lockedCurrentFile(fl *flock.Flock) bool {
	held, err := fl.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(fl.Path())
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}

// release removes the lock file while still holding the lock, then unlocks
func (l *outputLock) release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.lock.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = l.lock.Close()
		return fmt.Errorf("remove lock file: %w", err)
	}
	return l.lock.Close()
}
