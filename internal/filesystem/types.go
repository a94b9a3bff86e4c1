package filesystem

import "errors"

// Errors returned by the filesystem service
var (
	ErrPathNotFound = errors.New("path does not exist")
	ErrNotDirectory = errors.New("path is not a directory")
	ErrAccessDenied = errors.New("access denied")
	ErrInvalidPath  = errors.New("invalid path")
)

// DirectoryEntry represents a single directory in a browse result
type DirectoryEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	// Comics counts the archives directly inside the directory.
	Comics int `json:"comics"`
}

// BrowseResult is the listing of one directory.
type BrowseResult struct {
	Path    string           `json:"path"`
	Parent  string           `json:"parent,omitempty"`
	Entries []DirectoryEntry `json:"entries"`
	// Comics counts the archives directly inside Path.
	Comics int `json:"comics"`
}
