package statestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	archiveLockDirName   = ".sync.lock"
	archiveLockOwnerFile = "owner.json"
)

// ArchiveLock guards a state directory so two synchronization passes cannot
// interleave their store writes.
type ArchiveLock struct {
	lockDir string
}

type archiveLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
}

func AcquireArchiveLock(stateDir string) (ArchiveLock, error) {
	target := strings.TrimSpace(stateDir)
	if target == "" {
		return ArchiveLock{}, fmt.Errorf("state directory is required")
	}
	if err := Mkdir(target); err != nil {
		return ArchiveLock{}, err
	}

	lockDir := filepath.Join(target, archiveLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, archiveLockOwnerFile)
			var owner archiveLockOwner
			if readErr := ReadJSON(ownerPath, &owner); readErr == nil && owner.PID > 0 && owner.CreatedAt != "" {
				return ArchiveLock{}, fmt.Errorf(
					"archive is locked by another sync: %s (pid=%d created_at=%s host=%s)",
					target, owner.PID, owner.CreatedAt, owner.Hostname,
				)
			}
			return ArchiveLock{}, fmt.Errorf("archive is locked by another sync: %s", target)
		}
		return ArchiveLock{}, fmt.Errorf("acquire archive lock for %s: %w", target, err)
	}

	owner := archiveLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
	}
	ownerPath := filepath.Join(lockDir, archiveLockOwnerFile)
	if err := WriteJSON(ownerPath, owner); err != nil {
		_ = os.Remove(lockDir)
		return ArchiveLock{}, fmt.Errorf("write archive lock owner for %s: %w", target, err)
	}

	return ArchiveLock{lockDir: lockDir}, nil
}

func (l ArchiveLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, archiveLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release archive lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
