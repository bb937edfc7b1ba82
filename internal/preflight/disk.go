package preflight

import (
	"golang.org/x/sys/unix"
)

// freeBytes reports the free disk space available to unprivileged writes at
// path.
func freeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
