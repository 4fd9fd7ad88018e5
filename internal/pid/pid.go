package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/halver/sysmond/internal/errors"
)

const pidFile = "sysmond.pid"

func path() string {
	return filepath.Join(os.TempDir(), pidFile)
}

// Write claims the PID file for this process. It fails with
// ErrAlreadyRunning when the file names a live process.
func Write() error {
	errFactory := errors.New()

	if running, err := otherInstanceRunning(); err != nil {
		return err
	} else if running {
		return errFactory.New(errors.ErrAlreadyRunning)
	}

	if err := os.WriteFile(path(), []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove removes the PID file.
func Remove() error {
	if err := os.Remove(path()); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func otherInstanceRunning() (bool, error) {
	errFactory := errors.New()

	contents, err := os.ReadFile(path())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errFactory.Wrap(errors.ErrInternal, err)
	}

	owner, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		// Stale or corrupt file; treat as unclaimed.
		return false, nil
	}

	process, err := os.FindProcess(owner)
	if err != nil {
		return false, nil
	}

	// Signal 0 probes liveness without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil, nil
}
