//go:build windows

package fileval

import "io/fs"

func isExecutable(fs.FileInfo) bool {
	return false
}
