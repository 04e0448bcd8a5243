//go:build !linux && !darwin && !freebsd

package fs

import "errors"

// FreeSpace is not supported on this platform. The cache skips its free
// space floor when it returns an error.
func FreeSpace(path string) (uint64, error) {
	return 0, errors.New("free space query not supported")
}
