package index

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const lockFileName = "index.lock"

// indexLock is held by the one process allowed to write the store. The lock
// file records the holder's pid so a refused writer can say who holds it.
type indexLock struct {
	file *os.File
}

func acquireIndexLock(stateDir string) (*indexLock, error) {
	f, err := os.OpenFile(filepath.Join(stateDir, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open index lock: %w", err)
	}

	ok, err := tryLock(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to lock index: %w", err)
	}
	if !ok {
		pid := lockHolder(f)
		f.Close()
		if pid != 0 {
			return nil, fmt.Errorf("%w by pid %d", ErrIndexLocked, pid)
		}
		return nil, ErrIndexLocked
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}
	return &indexLock{file: f}, nil
}

// lockHolder returns the pid written by the current holder, or 0 when it
// cannot be read.
func lockHolder(f *os.File) int {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}

func (l *indexLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlock(l.file)
	if err := l.file.Close(); unlockErr == nil {
		unlockErr = err
	}
	l.file = nil
	return unlockErr
}
