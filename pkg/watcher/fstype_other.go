//go:build !linux

package watcher

// Only Linux exposes superblock magic portably; elsewhere every path is local.
func statFilesystemType(string) FilesystemType {
	return FSTypeLocal
}
