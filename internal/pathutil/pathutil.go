package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath converts all path separators to forward slashes.
// Go's os.Open/os.Stat accept forward slashes on all platforms.
func NormalizePath(p string) string {
	return filepath.ToSlash(p)
}

// IsSafeFilename reports whether name, taken relative to base, stays inside
// base. Names containing ".." are always refused. Symlinks are followed when
// the target exists.
func IsSafeFilename(name, base string) bool {
	if name == "" || strings.Contains(name, "..") || filepath.IsAbs(name) {
		return false
	}

	root, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	target := filepath.Join(root, filepath.FromSlash(name))

	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		if realRoot, err := filepath.EvalSymlinks(root); err == nil {
			root, target = realRoot, resolved
		}
	}

	return IsWithin(target, root)
}

// IsWithin reports whether path is root or lies below it.
func IsWithin(path, root string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator)))
}
