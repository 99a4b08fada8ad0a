//go:build !windows

package fileval

import "io/fs"

// isExecutable reports a regular file with any execute bit set.
func isExecutable(info fs.FileInfo) bool {
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
