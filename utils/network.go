package utils

import (
	"path/filepath"
	"strings"
)

// Common network mount prefixes on different platforms
var networkPrefixes = []string{
	"/mnt/",     // Linux NFS/SMB mounts
	"/media/",   // Linux removable/network media
	"/Volumes/", // macOS network volumes
}

// Network filesystem indicators in a path
var networkIndicators = []string{
	"nfs", "cifs", "smb", "webdav", "ftp", "sftp",
}

// IsNetworkDrive detects if a file path is on a network-mounted drive.
// Image sequences from a NAS decode much slower, so callers use this to
// lower parallelism.
func IsNetworkDrive(filePath string) bool {
	// Windows UNC paths, before converting to absolute path
	if strings.HasPrefix(filePath, "//") || strings.HasPrefix(filePath, `\\`) {
		return true
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	for _, prefix := range networkPrefixes {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lowerPath := strings.ToLower(absPath)
	for _, indicator := range networkIndicators {
		if strings.Contains(lowerPath, indicator) {
			return true
		}
	}

	return false
}

// AnyOnNetworkDrive reports whether at least one of paths is on a network drive
func AnyOnNetworkDrive(paths []string) bool {
	for _, p := range paths {
		if IsNetworkDrive(p) {
			return true
		}
	}
	return false
}
