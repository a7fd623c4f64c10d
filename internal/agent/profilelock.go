package agent

import (
	"fmt"
	"os"
)

// ProfileLock is the on-disk mutual-exclusion primitive backing a
// profile's lock: an exclusively-created file under tmpDir, so a second
// concurrent locker fails outright instead of blocking (§5's
// shared-resource note (iii)).
type ProfileLock struct {
	path string
	file *os.File
}

// AcquireProfileLock exclusively creates <tmpDir>/garrison-<profile>.lock.
// It fails if the file already exists, signaling another holder.
func AcquireProfileLock(tmpDir, profile string) (*ProfileLock, error) {
	path := profileLockPath(tmpDir, profile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("agent: acquire profile lock %q: %w", path, err)
	}
	return &ProfileLock{path: path, file: f}, nil
}

// Release closes and removes the lock file.
func (l *ProfileLock) Release() error {
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("agent: close profile lock %q: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("agent: remove profile lock %q: %w", l.path, err)
	}
	return nil
}
