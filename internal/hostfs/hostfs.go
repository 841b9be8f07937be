package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
)

var ErrInvalidPath = errors.New("invalid host path")

// Resolve maps an absolute host path (e.g. /etc/ssh/authorized_keys) into
// the local view of the host mounted at root (e.g. /host/etc/ssh/authorized_keys).
func Resolve(root, abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	if root == "" {
		root = DefaultRoot
	}
	if !strings.HasPrefix(root, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	return filepath.Join(root, strings.TrimPrefix(clean, "/")), nil
}

// Join appends a single path element to dir, rejecting anything that would
// escape it.
func Join(dir, name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, '/') {
		return "", ErrInvalidPath
	}
	return filepath.Join(dir, name), nil
}
