package fsutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-uuid"
)

// ErrNoOwnerInfo is returned when a lock file has no owner-info sidecar.
var ErrNoOwnerInfo = errors.New("no owner info recorded")

// OwnerInfo is advisory metadata written next to a lock file while a lock
// is held. It is diagnostics only and plays no part in the lock protocol:
// the OS lock table is the source of truth, the sidecar can be stale after
// a crash.
type OwnerInfo struct {
	OwnerID    string    `json:"owner_id"`
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	Mode       string    `json:"mode"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// NewOwnerInfo describes the current process as the holder of a lock in
// the given mode.
func NewOwnerInfo(mode string) (OwnerInfo, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return OwnerInfo{}, fmt.Errorf("generate owner id: %w", err)
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return OwnerInfo{
		OwnerID:    id,
		PID:        os.Getpid(),
		Hostname:   hostname,
		Mode:       mode,
		AcquiredAt: time.Now().UTC(),
	}, nil
}

// sidecarPath returns the owner-info path for a lock file.
func sidecarPath(lockPath string) string {
	return lockPath + ".info"
}

// WriteOwnerInfo records info in the sidecar for lockPath.
func WriteOwnerInfo(lockPath string, info OwnerInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal owner info: %w", err)
	}
	if err := os.WriteFile(sidecarPath(lockPath), data, lockFileMode); err != nil {
		return fmt.Errorf("write owner info: %w", err)
	}
	return nil
}

// ReadOwnerInfo loads the sidecar for lockPath. Returns ErrNoOwnerInfo if
// none exists.
func ReadOwnerInfo(lockPath string) (OwnerInfo, error) {
	data, err := os.ReadFile(sidecarPath(lockPath))
	if err != nil {
		if os.IsNotExist(err) {
			return OwnerInfo{}, ErrNoOwnerInfo
		}
		return OwnerInfo{}, fmt.Errorf("read owner info: %w", err)
	}
	var info OwnerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return OwnerInfo{}, fmt.Errorf("parse owner info: %w", err)
	}
	return info, nil
}

// RemoveOwnerInfo deletes the sidecar for lockPath. Missing sidecars are
// not an error.
func RemoveOwnerInfo(lockPath string) error {
	err := os.Remove(sidecarPath(lockPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove owner info: %w", err)
	}
	return nil
}
