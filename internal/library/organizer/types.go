package organizer

import "errors"

var (
	ErrSeriesRequired        = errors.New("series name is required")
	ErrDestinationRequired   = errors.New("destination is required")
	ErrNoFiles               = errors.New("no files selected")
	ErrNoFixes               = errors.New("no files to fix")
	ErrDestinationNotAllowed = errors.New("destination not allowed")
	ErrUnsafePath            = errors.New("path not allowed")
	ErrFileNotFound          = errors.New("file not found")
	ErrNotInTrash            = errors.New("file not found in trash")
	ErrTargetExists          = errors.New("target already exists")
)

// TrashDir is the soft-delete folder created inside a source directory.
const TrashDir = ".trash"

// FileRequest is one file to place into a series folder.
type FileRequest struct {
	Source string `json:"source"`
	Tome   *int   `json:"tome"`
	Title  string `json:"title"`
}

// OrganizeRequest moves files into one series folder.
type OrganizeRequest struct {
	SeriesName  string        `json:"seriesName"`
	Destination string        `json:"destination"`
	SourceDir   string        `json:"sourceDir,omitempty"`
	Files       []FileRequest `json:"files"`
	Force       bool          `json:"force"`
}

// MatchedItem is a file that carries its own series and destination.
type MatchedItem struct {
	Source      string `json:"source"`
	SeriesName  string `json:"seriesName"`
	Destination string `json:"destination"`
	Tome        *int   `json:"tome"`
	Title       string `json:"title"`
}

// FileResult reports the outcome for one file.
type FileResult struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	NewName     string `json:"newName,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// OrganizeResult is returned by Organize. When the series folder already
// exists and the request was not forced, only Warning and ExistingFiles are
// set and nothing was moved.
type OrganizeResult struct {
	BatchID       string       `json:"batchId,omitempty"`
	SeriesDir     string       `json:"seriesDir,omitempty"`
	Results       []FileResult `json:"results"`
	Warning       string       `json:"warning,omitempty"`
	ExistingFiles []string     `json:"existingFiles,omitempty"`
}

// FixResult reports the outcome of one naming fix.
type FixResult struct {
	Current  string `json:"current"`
	Expected string `json:"expected,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Succeeded counts successful file results.
func Succeeded(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

func failed(source string, err error) FileResult {
	return FileResult{Source: source, Error: err.Error()}
}
